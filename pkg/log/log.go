package log

import (
	"io"
	"os"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/kolide/kit/logutil"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger pairs a go-kit logger with the file it may be writing to, so the
// file can be closed on shutdown.
type Logger struct {
	kitlog.Logger
	file io.Closer
}

type Option func(*config)

type config struct {
	debug    bool
	filePath string
	stderr   io.Writer
}

// WithDebug enables debug level output.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.debug = debug
	}
}

// WithFile additionally writes logs to a rotated file at path.
func WithFile(path string) Option {
	return func(c *config) {
		c.filePath = path
	}
}

func withStderr(w io.Writer) Option {
	return func(c *config) {
		c.stderr = w
	}
}

// New returns a JSON logger. Without a file it is the stock kolide server
// logger; with one, lines go to both stderr and a lumberjack-rotated file.
func New(opts ...Option) *Logger {
	c := &config{stderr: os.Stderr}
	for _, opt := range opts {
		opt(c)
	}

	if c.filePath == "" && c.stderr == os.Stderr {
		return &Logger{Logger: logutil.NewServerLogger(c.debug)}
	}

	var (
		w    io.Writer = c.stderr
		file io.Closer
	)
	if c.filePath != "" {
		lj := &lumberjack.Logger{
			Filename:   c.filePath,
			MaxSize:    25, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = io.MultiWriter(c.stderr, lj)
		file = lj
	}

	base := kitlog.NewJSONLogger(kitlog.NewSyncWriter(w))
	base = kitlog.With(base, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.DefaultCaller)

	allow := level.AllowInfo()
	if c.debug {
		allow = level.AllowDebug()
	}

	return &Logger{Logger: level.NewFilter(base, allow), file: file}
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
