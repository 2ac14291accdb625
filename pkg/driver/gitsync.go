package driver

import (
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// SyncSuite clones a shared conformance-suite repository into dir and
// verifies it actually carries a suite manifest. dir must not already
// contain a checkout.
func SyncSuite(url, dir string) (*Suite, error) {
	if url == "" {
		return nil, fmt.Errorf("sync: empty repository url")
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("sync: prepare %s: %w", dir, err)
	}
	if _, err := git.PlainClone(dir, false, &git.CloneOptions{URL: url}); err != nil {
		return nil, fmt.Errorf("sync: clone %s: %w", url, err)
	}
	manifestPath := filepath.Join(dir, "suite.yml")
	suite, err := LoadSuite(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("sync: %s has no usable suite manifest: %w", url, err)
	}
	return suite, nil
}
