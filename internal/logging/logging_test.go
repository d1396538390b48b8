package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewPrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "gateway").Printf("listening on %s", ":8080")

	if !strings.Contains(buf.String(), "[gateway] ") || !strings.Contains(buf.String(), "listening on :8080") {
		t.Fatalf("log line = %q", buf.String())
	}
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pmdash.log")

	for _, line := range []string{"first", "second"} {
		f, err := OpenFile(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		New(f, "test").Print(line)
		f.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "first") || !strings.Contains(string(data), "second") {
		t.Fatalf("log file = %q", data)
	}
}
