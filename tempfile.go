package cryo

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cryodb/cryo/config"
)

// TempFile creates a uniquely named writable file under the configured
// base directory's tmp/ area, creating the area first if needed. The name
// carries a random UUID, so every call yields a distinct file. Callers own
// the handle and the file; no cleanup policy is applied here.
func TempFile(cfg config.Config, prefix string) (*os.File, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.TmpDir(), 0o755); err != nil {
		return nil, &DirectoryCreationError{Path: cfg.TmpDir(), Err: err}
	}

	name := filepath.Join(cfg.TmpDir(), prefix+uuid.NewString()+".tmp")
	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
}
