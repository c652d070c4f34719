package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// matroskaMagic is the EBML header id every Matroska file starts with.
var matroskaMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

// WriteMediaFile creates a placeholder container of exactly size bytes at
// path, creating parent directories. The content starts with the Matroska
// magic so the file looks like a container to anything sniffing it. Sizes
// below the magic length are raised to it.
func WriteMediaFile(t testing.TB, path string, size int64) string {
	t.Helper()

	if size < int64(len(matroskaMagic)) {
		size = int64(len(matroskaMagic))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := append(bytes.Clone(matroskaMagic), make([]byte, size-int64(len(matroskaMagic)))...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
