package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StartupErrorFileName is the file written by WriteStartupErrorFile.
const StartupErrorFileName = "startup-error.log"

// WriteStartupErrorFile records a startup failure in dir, replacing any
// earlier record, and returns the file path. It is used before the logger
// is available, so it reports its own failure only through the error.
func WriteStartupErrorFile(dir string, err error) (string, error) {
	if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
		return "", mkErr
	}

	path := filepath.Join(dir, StartupErrorFileName)
	f, ferr := os.Create(path)
	if ferr != nil {
		return "", ferr
	}
	defer f.Close()

	if _, werr := fmt.Fprintf(f, "[%s] STARTUP ERROR\n%v\n", time.Now().Format("2006-01-02 15:04:05"), err); werr != nil {
		return path, werr
	}
	return path, nil
}
