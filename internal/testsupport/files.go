package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// PDFBytes returns a payload that starts with a PDF header and is padded to
// size bytes with a repeating binary pattern.
func PDFBytes(size int) []byte {
	header := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	if size < len(header) {
		size = len(header)
	}
	buf := make([]byte, size)
	copy(buf, header)
	for i := len(header); i < size; i++ {
		buf[i] = byte(i % 251)
	}
	return buf
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
