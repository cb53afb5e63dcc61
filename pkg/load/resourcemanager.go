package load

import (
	"crypto/sha256"
	"os"
	"path/filepath"

	"github.com/yesoreyeram/routegraph/pkg/ids"
)

// FSResourceManager is a "dumb" resource manager, per the original
// implementation's own description: it does not auto-discover search
// paths (no XDG dirs, no home-directory convention); the host configures
// it explicitly via AddDir.
type FSResourceManager struct {
	dirs []string
}

// NewFSResourceManager creates an empty resource manager; call AddDir to
// register search directories before the first LoadByID.
func NewFSResourceManager() *FSResourceManager {
	return &FSResourceManager{}
}

// AddDir implements /resman/add_dir (§6.1): appends a lookup directory.
func (m *FSResourceManager) AddDir(dir string) {
	m.dirs = append(m.dirs, dir)
}

// Dirs returns the registered lookup directories in registration order,
// for /resman/list_dirs introspection.
func (m *FSResourceManager) Dirs() []string {
	out := make([]string, len(m.dirs))
	copy(out, m.dirs)
	return out
}

// Candidates returns every regular file in a registered directory,
// filtered by content hash when id.Hash is set, in directory-then-name
// order for determinism.
func (m *FSResourceManager) Candidates(id ids.EffectID) ([]string, error) {
	var out []string
	for _, dir := range m.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if id.Hash != nil {
				ok, err := fileMatchesHash(path, *id.Hash)
				if err != nil || !ok {
					continue
				}
			}
			out = append(out, path)
		}
	}
	return out, nil
}

func fileMatchesHash(path string, want [32]byte) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return sha256.Sum256(data) == want, nil
}
