// Package engine is the query core: it reshapes wide indicator tables into
// long form, filters and aggregates them, and reconciles user query
// parameters against what a dataset actually contains.
//
// Pipeline:
//
//	WideTable → Transform → LongTable → Filter → Aggregate → Result
//
// Every function is pure over its inputs. Nothing here blocks, retries or
// holds shared state, so one Engine can serve any number of goroutines.
package engine

// Logger is the subset of a leveled logger the engine writes to.
// *gommon/log.Logger and echo.Logger both satisfy it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}

// Engine carries the per-process context the query functions log through.
type Engine struct {
	log Logger
}

// New returns an Engine logging to l. A nil l disables logging.
func New(l Logger) *Engine {
	if l == nil {
		l = nopLogger{}
	}
	return &Engine{log: l}
}
