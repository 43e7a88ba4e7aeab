// Package logging builds the process logger: gommon's leveled logger (the
// one echo uses) writing JSON lines to a size-rotated file.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/labstack/gommon/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const header = `{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}","file":"${short_file}","line":"${line}"}`

// Options selects where and how much to log.
type Options struct {
	Prefix    string
	Dir       string // empty disables the file sink
	MaxSizeMB int
	Backups   int
	Debug     bool // debug.log at DEBUG instead of prod.log at ERROR
	Stderr    bool // mirror every line to stderr
}

// FileName is the log file Options writes to.
func (o Options) FileName() string {
	if o.Debug {
		return "debug.log"
	}
	return "prod.log"
}

// New returns a logger and a function closing its file sink. The returned
// logger satisfies echo.Logger.
func New(o Options) (*log.Logger, func() error) {
	l := log.New(o.Prefix)
	l.SetHeader(header)
	if o.Debug {
		l.SetLevel(log.DEBUG)
	} else {
		l.SetLevel(log.ERROR)
	}

	var sinks []io.Writer
	closer := func() error { return nil }
	if o.Dir != "" {
		if err := os.MkdirAll(o.Dir, 0o755); err == nil {
			lj := &lumberjack.Logger{
				Filename:   filepath.Join(o.Dir, o.FileName()),
				MaxSize:    o.MaxSizeMB,
				MaxBackups: o.Backups,
			}
			sinks = append(sinks, lj)
			closer = lj.Close
		} else {
			// Fall back to stderr only; the directory problem is the first line.
			o.Stderr = true
			defer l.Errorf("log directory %s: %v", o.Dir, err)
		}
	}
	if o.Stderr {
		sinks = append(sinks, os.Stderr)
	}
	switch len(sinks) {
	case 0:
		l.SetOutput(io.Discard)
	case 1:
		l.SetOutput(sinks[0])
	default:
		l.SetOutput(io.MultiWriter(sinks...))
	}
	return l, closer
}
