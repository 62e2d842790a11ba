package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00.000"},
		{1.5, "00:00:01.500"},
		{61, "00:01:01.000"},
		{3661.25, "01:01:01.250"},
	}
	for _, c := range cases {
		if got := FormatSeconds(c.in); got != c.want {
			t.Errorf("FormatSeconds(%v): expected %s, got %s", c.in, c.want, got)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"45.5", 45500 * time.Millisecond},
		{"1:30", 90 * time.Second},
		{"01:01:01", 3661 * time.Second},
		{" 2.0 ", 2 * time.Second},
	}
	for _, c := range cases {
		got, err := ParseTimestamp(c.in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseTimestamp(%q): expected %v, got %v", c.in, c.want, got)
		}
	}

	for _, bad := range []string{"", "a:b", "1:2:3:4", "abc"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Errorf("ParseTimestamp(%q) should fail", bad)
		}
	}
}

func TestParseFrameRate(t *testing.T) {
	if got := ParseFrameRate("30/1"); got != 30 {
		t.Errorf("expected 30, got %v", got)
	}
	if got := ParseFrameRate("30000/1001"); got < 29.9 || got > 30 {
		t.Errorf("expected ~29.97, got %v", got)
	}
	if got := ParseFrameRate("0/0"); got != 0 {
		t.Errorf("zero denominator should yield 0, got %v", got)
	}
	if got := ParseFrameRate("garbage"); got != 0 {
		t.Errorf("expected 0 for garbage, got %v", got)
	}
}

func TestTempFileExtension(t *testing.T) {
	f, err := TempFile(t.TempDir(), "mix", ".wav")
	if err != nil {
		t.Fatalf("TempFile failed: %v", err)
	}
	defer f.Close()

	if filepath.Ext(f.Name()) != ".wav" {
		t.Errorf("expected .wav extension, got %s", f.Name())
	}
}

func TestEnsureDirAndCleanup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if !FileExists(dir) {
		t.Error("directory should exist")
	}

	file := filepath.Join(dir, "x.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	CleanupFiles(file, filepath.Join(dir, "never-existed"))
	if FileExists(file) {
		t.Error("file should be removed")
	}
}
