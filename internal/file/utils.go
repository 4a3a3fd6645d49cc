package file

import (
	"os"
	"path/filepath"
)

// prepareFilepath creates path for writing. An existing file with the same
// name is replaced.
func prepareFilepath(filePath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}
	return os.Create(filePath)
}
