package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	out     = log.New(io.Discard, "", log.LstdFlags|log.Lmicroseconds)
	file    *os.File
	verbose bool
)

// InitLogging points the package logger at path. Every process of the
// program appends to the same file, so each line carries the pid.
func InitLogging(debug bool, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		_ = file.Close()
	}
	file = f
	verbose = debug
	out = log.New(f, fmt.Sprintf("[%d] ", os.Getpid()), log.LstdFlags|log.Lmicroseconds)

	return nil
}

// Close flushes and detaches the log file. Later calls are discarded.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		_ = file.Close()
		file = nil
	}
	out = log.New(io.Discard, "", 0)
}

func Debugf(format string, args ...any) {
	mu.Lock()
	enabled := verbose
	mu.Unlock()
	if !enabled {
		return
	}
	write("DEBUG", format, args...)
}

func Infof(format string, args ...any) {
	write("INFO", format, args...)
}

func Warnf(format string, args ...any) {
	write("WARN", format, args...)
}

func Errorf(format string, args ...any) {
	write("ERROR", format, args...)
}

func write(level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	out.Printf("%-5s %s", level, fmt.Sprintf(format, args...))
}
