// =============================================================================
// publist-tools - File Utilities
// =============================================================================
//
// This module provides the small amount of file handling shared by the
// publist-tools commands:
//   - Reading a text file as a list of lines
//   - Emitting a fully buffered result to stdout or to a file
//   - Atomic file replacement (write to a temp file, then rename)
//   - Detecting when two paths name the same file
//
// OUTPUT STRATEGY:
//   Commands never stream partial results. Each command renders its complete
//   output into memory and hands the bytes to WriteOutput exactly once. When
//   an output path is given, the bytes land in a uniquely named temp file in
//   the destination directory and are renamed over the target, so a reader
//   never observes a half-written stylesheet or config.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// maxLineSize bounds a single line read by ReadLines.
const maxLineSize = 1024 * 1024

// =============================================================================
// READING
// =============================================================================

// ReadLines reads the file at path and returns its lines without line
// terminators. Lines are returned as-is; callers decide how to trim them.
//
// The file handle is held only for the duration of the read.
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	lines, err := ScanLines(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return lines, nil
}

// ScanLines splits r into lines. A trailing "\r" is stripped from each line
// so files with Windows line endings parse the same as Unix ones.
func ScanLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// =============================================================================
// WRITING
// =============================================================================

// WriteOutput emits data in a single write. If outputPath is empty the data
// goes to w (normally the command's stdout); otherwise it replaces the file
// at outputPath atomically.
func WriteOutput(w io.Writer, outputPath string, data []byte) error {
	if outputPath == "" {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	return WriteFileAtomic(outputPath, data, 0644)
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place. The temp file is removed if any step fails.
//
// PARAMETERS:
//   - path: The destination file. Its directory must already exist.
//   - data: The complete file contents.
//   - perm: The permission bits for the new file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpPath := tempPathFor(path)

	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

// tempPathFor returns a hidden, uniquely named sibling of path.
// Example: out/min-color.scss -> out/.min-color.scss.<uuid>.tmp
func tempPathFor(path string) string {
	dir, name := filepath.Split(path)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", name, uuid.NewString()))
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// SameFile reports whether a and b refer to the same file. Paths that do not
// exist yet are compared by their cleaned absolute form.
func SameFile(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	if errA == nil && errB == nil {
		return os.SameFile(infoA, infoB)
	}

	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}

	return absA == absB
}
