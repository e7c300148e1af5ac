package accessible

import (
	"os"
	"path/filepath"
)

// WorkingPath resolves a resource path so game assets are found both in
// development and when shipped next to the binary: a path that exists
// relative to the working directory wins, otherwise it is resolved
// against the directory holding the running executable.
func WorkingPath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	if _, err := os.Stat(rel); err == nil {
		return rel
	}
	exe, err := os.Executable()
	if err != nil {
		return rel
	}
	return filepath.Join(filepath.Dir(exe), rel)
}
