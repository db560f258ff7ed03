package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadTextFile reads a whole text file, trimming nothing
func ReadTextFile(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	LogDebug("Read %d bytes from %s", len(data), filePath)
	return string(data), nil
}

// WriteTextFile writes text to a file with the given permissions, creating parent directories
func WriteTextFile(filePath string, content string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			LogWarning("Failed to close file: %v", err)
		}
	}()

	writer := bufio.NewWriter(f)
	if _, err := writer.WriteString(content); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	// OpenFile does not change the mode of an existing file
	if err := os.Chmod(filePath, perm); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	LogDebug("Successfully wrote content to %s", filePath)
	return nil
}

// CopyFile copies a file from src to dst
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() {
		if err := sourceFile.Close(); err != nil {
			LogWarning("Failed to close source file: %v", err)
		}
	}()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		_ = destFile.Close()
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	// A failed close can mean the data never reached the disk
	if err := destFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}

	return nil
}

// MoveFile renames src to dst, falling back to copy+remove across devices
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := CopyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		LogWarning("Failed to remove %s after copy: %v", src, err)
	}
	return nil
}
