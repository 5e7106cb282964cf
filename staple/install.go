package staple

import (
	"fmt"
	"os"
	"path/filepath"
)

// Scratch is the private per-run work area for response bytes that have been
// verified but not yet published. It lives inside the output directory so
// that publishing is a same-filesystem rename, which is atomic with respect
// to concurrent readers. Creating it doubles as the run's writability check
// on the output directory.
type Scratch struct {
	outputDir string
	dir       string
}

// NewScratch creates the work area under outputDir.
func NewScratch(outputDir string) (*Scratch, error) {
	dir, err := os.MkdirTemp(outputDir, ".ocsp-fetcher.")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory in output directory: %w", err)
	}
	return &Scratch{outputDir: outputDir, dir: dir}, nil
}

// Cleanup removes the work area and everything staged in it. Callers must
// arrange for it to run on every exit path.
func (s *Scratch) Cleanup() {
	_ = os.RemoveAll(s.dir)
}

// Stage writes der to a private file in the work area and returns its path.
// Staged files are invisible to staple readers until Install.
func (s *Scratch) Stage(filename string, der []byte) (string, error) {
	path := filepath.Join(s.dir, filename)
	err := os.WriteFile(path, der, 0644)
	if err != nil {
		return "", fmt.Errorf("staging staple: %w", err)
	}
	return path, nil
}

// Install publishes a staged file under its stable name in the output
// directory. The rename is the sole mutation of the published staple: a
// reader sees either the previous complete staple or the new one, never a
// partial write.
func (s *Scratch) Install(stagedPath, filename string) error {
	err := os.Rename(stagedPath, filepath.Join(s.outputDir, filename))
	if err != nil {
		return fmt.Errorf("installing staple: %w", err)
	}
	return nil
}
