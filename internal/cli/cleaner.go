package cli

import (
	"os"
	"path/filepath"

	"github.com/toyz/servicereg/internal/errors"
)

// GeneratedFileName is the file written by the generator in the target package
const GeneratedFileName = "autogen_servicereg.go"

// Cleaner handles cleaning up generated files
type Cleaner struct {
	scanner *DirectoryScanner
}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{
		scanner: NewDirectoryScanner(),
	}
}

// CleanGeneratedFiles removes every generated file found under patterns and
// returns the removed paths
func (c *Cleaner) CleanGeneratedFiles(patterns []string) ([]string, error) {
	dirs, err := c.scanner.ScanDirectories(patterns)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, dir := range dirs {
		file := filepath.Join(dir, GeneratedFileName)
		if err := os.Remove(file); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, errors.WrapFileSystemError("remove", file, err)
		}
		removed = append(removed, file)
	}
	return removed, nil
}
