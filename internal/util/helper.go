package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

var ErrHomeDir = errors.New("unable to get the user home dir")

func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%s, %w", err, ErrHomeDir)
	}
	return home, nil
}

// WriteFileAtomic replaces filename with data.
// The content is written to a temporary file in the same directory
// which is renamed over the target, so a failed write never leaves a
// truncated file behind.
func WriteFileAtomic(fs afero.Fs, filename string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filename)
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fs, dir, fmt.Sprintf(".%s.tmp-*", filepath.Base(filename)))
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = fs.Chmod(tmpName, perm); err != nil {
		return err
	}
	return fs.Rename(tmpName, filename)
}
