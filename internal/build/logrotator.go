package build

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"
)

const (
	// DefaultMaxLogFiles is the number of rotated gate logs kept on disk.
	// A hook runs once per push, so a handful of files covers weeks.
	DefaultMaxLogFiles = 3

	// DefaultMaxLogFileSize is the size in MB at which the log rotates.
	DefaultMaxLogFileSize = 5

	// DefaultLogFilename is the log file name used when none is given.
	DefaultLogFilename = "pushgate.log"
)

// LogRotatorConfig describes the on-disk gate log.
type LogRotatorConfig struct {
	LogDir string

	// MaxLogFiles of 0 keeps a single, ever-growing file.
	MaxLogFiles int

	// MaxLogFileSize is in MB.
	MaxLogFileSize int

	Filename string
}

// DefaultLogRotatorConfig returns the rotation limits with no directory
// set.
func DefaultLogRotatorConfig() *LogRotatorConfig {
	return &LogRotatorConfig{
		MaxLogFiles:    DefaultMaxLogFiles,
		MaxLogFileSize: DefaultMaxLogFileSize,
		Filename:       DefaultLogFilename,
	}
}

// path is the live log file.
func (c *LogRotatorConfig) path() string {
	name := c.Filename
	if name == "" {
		name = DefaultLogFilename
	}

	return filepath.Join(c.LogDir, name)
}

// RotatingLogWriter is an io.Writer backed by a gzip-rotating log file.
// Writes after Close are dropped.
type RotatingLogWriter struct {
	pipe *io.PipeWriter
	done chan struct{}
}

// OpenRotatingLog creates the log directory and starts draining writes into
// the rotator.
func OpenRotatingLog(cfg *LogRotatorConfig) (*RotatingLogWriter, error) {
	file := cfg.path()
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	// rotator.New takes its threshold in KB.
	rot, err := rotator.New(
		file, int64(cfg.MaxLogFileSize)*1024, false, cfg.MaxLogFiles,
	)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", file, err)
	}
	rot.SetCompressor(gzip.NewWriter(nil), ".gz")

	pr, pw := io.Pipe()
	w := &RotatingLogWriter{pipe: pw, done: make(chan struct{})}

	go func() {
		defer close(w.done)

		runErr := rot.Run(pr)
		_ = rot.Close()

		// Nowhere else to report: this is the log.
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "pushgate: log file: %v\n", runErr)
		}
	}()

	return w, nil
}

func (w *RotatingLogWriter) Write(b []byte) (int, error) {
	if w.pipe == nil {
		return len(b), nil
	}

	return w.pipe.Write(b)
}

// Close ends the stream and blocks until the rotator has flushed it, so the
// final lines of a run survive the process exiting.
func (w *RotatingLogWriter) Close() error {
	if w.pipe == nil {
		return nil
	}

	err := w.pipe.Close()
	<-w.done
	w.pipe = nil

	return err
}
