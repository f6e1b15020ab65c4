package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriter_KeepsOneBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estate.log")
	w, err := newRotatingWriter(path, 16)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("first line is long\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	backup, err := os.ReadFile(path + ".1")
	if err != nil {
		t.Fatalf("expected a rotated backup: %v", err)
	}
	if string(backup) != "first line is long\n" {
		t.Errorf("backup = %q", backup)
	}
	current, _ := os.ReadFile(path)
	if string(current) != "second\n" {
		t.Errorf("current = %q", current)
	}
}

func TestDebugf_GatedByLevel(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	defer SetLevel("info")

	SetLevel("info")
	Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("debug output must be suppressed at info, got %q", buf.String())
	}

	SetLevel("DEBUG")
	Debugf("shown %d", 2)
	if !DebugEnabled() || !strings.Contains(buf.String(), "Debug: shown 2") {
		t.Fatalf("expected debug line, got %q", buf.String())
	}
}
