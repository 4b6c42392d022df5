package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	prev := CurrentMode()
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
		SetMode(prev)
	})
	return &buf
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"debug", DebugMode, false},
		{"INFO", InfoMode, false},
		{"", InfoMode, false},
		{"warn", WarningMode, false},
		{"error", ErrorMode, false},
		{"silent", SilentMode, false},
		{"loud", InfoMode, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevels(t *testing.T) {
	buf := captureLog(t)
	SetMode(WarningMode)

	Debugf("hidden %d", 1)
	Infof("hidden %d", 2)
	Warningf("shown %d", 3)
	Errorf("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below the threshold were written: %q", out)
	}
	if !strings.Contains(out, " WARNING shown 3") || !strings.Contains(out, " ERROR shown 4") {
		t.Errorf("missing messages: %q", out)
	}
}

func TestSetup_File(t *testing.T) {
	captureLog(t)
	path := filepath.Join(t.TempDir(), "gravis.log")

	closeLog, err := Setup(FileConfig{File: path, MaxSizeMB: 1, Level: "debug"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	Debugf("into the file")
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "into the file") {
		t.Errorf("log file content = %q", data)
	}
}

func TestSetup_BadLevel(t *testing.T) {
	captureLog(t)
	closeLog, err := Setup(FileConfig{Level: "chatty"})
	if err == nil {
		t.Fatal("expected an error for an unknown level")
	}
	if closeLog == nil {
		t.Fatal("close function must never be nil")
	}
}
