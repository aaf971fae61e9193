// audiostore/local.go
package audiostore

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/vaahana-ai/vaahana/pkg/logx"
)

// LocalStore keeps synthesized audio on disk and serves it through the
// server's /audio route. Files are throwaway artifacts; Sweep reclaims
// anything older than the URL lifetime.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the audio directory if needed. An empty dir
// lands under the system temp directory.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "vaahana-audio")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewInitError(err)
	}

	logx.WithField("dir", dir).Info("Local audio store initialized")
	return &LocalStore{dir: dir}, nil
}

// Put writes the audio bytes and returns the serving path. The name is
// flattened so callers cannot escape the audio directory.
func (s *LocalStore) Put(_ context.Context, name string, data []byte) (string, error) {
	name = filepath.Base(name)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		logx.WithField("name", name).WithError(err).Error("Failed to write audio file")
		return "", NewWriteError(name, err)
	}
	return "/audio/" + name, nil
}

// Path returns the on-disk location for a stored file name.
func (s *LocalStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Sweep deletes files older than the given age and reports how many
// went away.
func (s *LocalStore) Sweep(olderThan time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		logx.WithError(err).Warn("Audio sweep could not read directory")
		return 0
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
			removed++
		}
	}

	if removed > 0 {
		logx.WithField("removed", removed).Debug("Swept stale audio files")
	}
	return removed
}
