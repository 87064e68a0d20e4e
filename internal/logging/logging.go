// Package logging builds the process logger: text to stderr by default, or
// a daily-rotated file when a log directory is configured.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

const (
	logFileName  = "commander.log"
	maxLogAge    = 7 * 24 * time.Hour
	rotationTime = 24 * time.Hour
)

type Options struct {
	Level   string
	Verbose bool
	// Dir enables file logging. Console output is discarded when set.
	Dir    string
	Output io.Writer
}

func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()

	level := logrus.WarnLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", opts.Level)
		}
		level = parsed
	}
	if opts.Verbose && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	if opts.Dir == "" {
		return logger, nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating log directory %s", opts.Dir)
	}
	path := filepath.Join(opts.Dir, logFileName)
	writer, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithMaxAge(maxLogAge),
		rotatelogs.WithRotationTime(rotationTime),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "opening rotated log %s", path)
	}

	writers := lfshook.WriterMap{}
	for _, l := range logrus.AllLevels {
		if logger.IsLevelEnabled(l) {
			writers[l] = writer
		}
	}
	logger.AddHook(lfshook.NewHook(writers, &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}))
	logger.SetOutput(io.Discard)

	return logger, nil
}
