package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile renders rep and writes it atomically via a temp file in the
// destination directory plus os.Rename.
func WriteFile(path string, rep *Report, r Renderer) (err error) {
	data, err := r.Render(rep)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
