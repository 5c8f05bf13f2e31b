package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// SetupLogging tees the standard logger and gin's writers into stdout and
// cfg.LogDir/cfg.LogFile. The file name must be a plain name so logs cannot
// escape LogDir. Close the returned io.Closer on shutdown.
func SetupLogging(cfg Config) (io.Closer, error) {
	dir := firstNonEmpty(cfg.LogDir, "./logs")
	name := firstNonEmpty(cfg.LogFile, defaultLogFile)
	if !isSinglePathElement(name) {
		return nil, fmt.Errorf("invalid log file name %q", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	mw := io.MultiWriter(os.Stdout, f)
	log.SetOutput(mw)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	gin.DefaultWriter = mw
	gin.DefaultErrorWriter = mw

	log.Printf("[log] writing to %s", path)
	return f, nil
}
