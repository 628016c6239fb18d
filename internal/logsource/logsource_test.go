package logsource

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestResolver_ExplicitFileWins(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.log")
	touch(t, file, time.Now())
	touch(t, filepath.Join(dir, "ckpool.log"), time.Now().Add(time.Hour))

	r := &Resolver{File: file, Dir: dir}
	if got := r.LogPath(); got != file {
		t.Errorf("LogPath() = %q, want %q", got, file)
	}
}

func TestResolver_MissingFileFallsThrough(t *testing.T) {
	dir := t.TempDir()
	r := &Resolver{File: filepath.Join(dir, "missing.log"), Dir: dir}
	if got, want := r.LogPath(), filepath.Join(dir, "ckpool.log"); got != want {
		t.Errorf("LogPath() = %q, want %q", got, want)
	}
}

func TestResolver_DirectoryNotAFile(t *testing.T) {
	dir := t.TempDir()
	r := &Resolver{File: dir, Fallback: "/var/log/ckpool.log"}
	if got := r.LogPath(); got != "/var/log/ckpool.log" {
		t.Errorf("LogPath() = %q", got)
	}
}

func TestResolver_NewestInDirectory(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	touch(t, filepath.Join(dir, "ckpool.log"), base)
	touch(t, filepath.Join(dir, "ckpool.log.1"), base.Add(10*time.Minute))
	touch(t, filepath.Join(dir, "ckpool-2024.log.gz"), base.Add(20*time.Minute))
	touch(t, filepath.Join(dir, "other.log"), base.Add(30*time.Minute))

	r := &Resolver{Dir: dir}
	if got, want := r.LogPath(), filepath.Join(dir, "ckpool-2024.log.gz"); got != want {
		t.Errorf("LogPath() = %q, want %q", got, want)
	}
}

func TestResolver_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		r    Resolver
		want string
	}{
		{"default", Resolver{}, DefaultLogPath},
		{"configured", Resolver{Fallback: "/data/ckpool.log"}, "/data/ckpool.log"},
		{"missing dir", Resolver{Dir: "/nonexistent/poolstat", Fallback: "/data/ckpool.log"}, "/data/ckpool.log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.LogPath(); got != tt.want {
				t.Errorf("LogPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_Address(t *testing.T) {
	r := &Resolver{Addr: "  bc1qaddr \n"}
	if got := r.Address(); got != "bc1qaddr" {
		t.Errorf("Address() = %q", got)
	}
}
