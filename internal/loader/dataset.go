package loader

import (
	"context"
	"fmt"

	"gdpengine/internal/engine"
)

// Dataset loads path, optionally cleans it, and builds the queryable
// dataset. A nil clean skips cleaning. ctx is checked between stages; a
// cancelled ctx returns its error and discards the partial work.
func Dataset(ctx context.Context, eng *engine.Engine, path string, clean *engine.CleanOptions) (*engine.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wide, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if clean != nil {
		if wide, err = eng.Clean(wide, *clean); err != nil {
			return nil, fmt.Errorf("clean %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	ds, err := eng.NewDataset(path, wide)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}
