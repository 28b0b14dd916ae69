package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var unsafeChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// WriteFileOverwrite writes content to a file at the specified path,
// overwriting it if it already exists. Missing parent directories are created.
func WriteFileOverwrite(filePath string, content []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filePath, err)
	}

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer f.Close()

	_, err = f.Write(content)
	if err != nil {
		return fmt.Errorf("failed to write to file %s: %w", filePath, err)
	}

	return nil
}

// SanitizeFilename replaces characters that are not allowed in file names.
func SanitizeFilename(name string) string {
	return unsafeChars.ReplaceAllString(name, "-")
}
