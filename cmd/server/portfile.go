package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"codeberg.org/codeagent/server/internal/logger"
)

// publishes the bound port for the editor extension. Any old file is
// removed first and the new content is read back before returning.
func writePortFile(path string, port int) error {
	if err := os.Remove(path); err == nil {
		logger.Info("removed old port file", "path", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove old port file: %w", err)
	}

	want := strconv.Itoa(port)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // G302: port is not secret
	if err != nil {
		return fmt.Errorf("failed to create port file: %w", err)
	}

	if _, err := f.WriteString(want); err != nil {
		f.Close() //nolint:errcheck,gosec // write already failed
		return fmt.Errorf("failed to write port file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close() //nolint:errcheck,gosec // sync already failed
		return fmt.Errorf("failed to sync port file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close port file: %w", err)
	}

	got, err := os.ReadFile(path) //nolint:gosec // G304: path comes from config
	if err != nil {
		return fmt.Errorf("failed to verify port file: %w", err)
	}

	if strings.TrimSpace(string(got)) != want {
		return fmt.Errorf("port file verification failed: expected %s, got %q", want, got)
	}

	logger.Info("wrote port file", "path", path, "port", port)

	return nil
}
