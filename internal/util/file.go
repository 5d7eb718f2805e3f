package util

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Example output for "ex.txt": "21313123123_ex.txt"
func AddUniquePrefixToFileName(fileName string) string {
	uniquePrefix := fmt.Sprintf("%d", time.Now().UnixNano())
	return fmt.Sprintf("%s_%s", uniquePrefix, filepath.Base(fileName))
}

func GetTempDir() string {
	return filepath.Join(os.TempDir(), "certeditor")
}

// CreateTempDir makes a fresh directory under GetTempDir. The caller removes it.
func CreateTempDir(pattern string) (string, error) {
	tempDir := GetTempDir()
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	return os.MkdirTemp(tempDir, pattern)
}
