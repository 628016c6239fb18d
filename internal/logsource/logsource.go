// Package logsource decides which ckpool log file to read.
package logsource

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultLogPath is used when neither a file nor a directory is configured.
const DefaultLogPath = "/ckpool/logs/ckpool.log"

// logGlob matches current and rotated ckpool logs in a directory.
const logGlob = "ckpool*.log*"

// Source names the log to parse and the address to track.
type Source interface {
	LogPath() string
	Address() string
}

// Resolver picks the log path on every call so a swapped volume or a
// rotated log is picked up without a restart.
//
// Precedence: File when it names an existing regular file, then the newest
// ckpool*.log* in Dir (or Dir/ckpool.log when there is none), then
// Fallback.
type Resolver struct {
	File     string
	Dir      string
	Fallback string
	Addr     string
}

// LogPath returns the resolved log path.
func (r *Resolver) LogPath() string {
	if file := strings.TrimSpace(r.File); file != "" {
		if info, err := os.Stat(file); err == nil && info.Mode().IsRegular() {
			return file
		}
	}
	if dir := strings.TrimSpace(r.Dir); dir != "" {
		if _, err := os.Stat(dir); err == nil {
			if newest := newestLog(dir); newest != "" {
				return newest
			}
			return filepath.Join(dir, "ckpool.log")
		}
	}
	if r.Fallback != "" {
		return r.Fallback
	}
	return DefaultLogPath
}

// Address returns the tracked payout address, trimmed.
func (r *Resolver) Address() string {
	return strings.TrimSpace(r.Addr)
}

// newestLog returns the most recently modified log in dir, or "".
func newestLog(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, logGlob))
	if err != nil || len(matches) == 0 {
		return ""
	}

	type candidate struct {
		path  string
		mtime int64
	}
	candidates := make([]candidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: m, mtime: info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].mtime > candidates[j].mtime
	})
	return candidates[0].path
}
