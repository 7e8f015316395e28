package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// jpegHeader is the SOI marker followed by an APP0 segment start.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0}

// WriteImage writes a small JPEG-looking file of the requested size and
// returns its path. A size smaller than the header writes just the header.
func WriteImage(t testing.TB, path string, size int) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if size < len(jpegHeader) {
		size = len(jpegHeader)
	}
	data := make([]byte, size)
	copy(data, jpegHeader)
	for i := len(jpegHeader); i < size; i++ {
		data[i] = 0x42
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// AssertExists fails the test when path is missing.
func AssertExists(t testing.TB, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

// AssertMissing fails the test when path is still present.
func AssertMissing(t testing.TB, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be removed, stat err=%v", path, err)
	}
}
