package utils

import (
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging points the standard logger at stderr and, when a log file is
// configured, at a size-rotated copy of it. The returned func closes the file.
func SetupLogging(cfg LogConfig) (io.Writer, func()) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if strings.TrimSpace(cfg.File) == "" {
		log.SetOutput(os.Stderr)
		return os.Stderr, func() {}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	w := io.MultiWriter(os.Stderr, rotator)
	log.SetOutput(w)
	return w, func() { _ = rotator.Close() }
}
