package form

import (
	"fmt"
	"os"
	"path/filepath"
)

// Saver receives a finished download.
type Saver interface {
	Save(filename string, data []byte) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(filename string, data []byte) error

// Save calls f.
func (f SaverFunc) Save(filename string, data []byte) error {
	return f(filename, data)
}

// FileSaver writes downloads into Dir.
type FileSaver struct {
	Dir string
}

// Save writes data to Dir/filename, creating Dir if needed.
func (s FileSaver) Save(filename string, data []byte) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// Path returns where Save will put filename.
func (s FileSaver) Path(filename string) string {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, filename)
}
