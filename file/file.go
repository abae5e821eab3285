package file

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/util"
)

// MidiName turns a song name into a .mid filename. An empty name gets a
// random one so repeated exports never collide.
func MidiName(name string) string {
	name = strings.TrimSpace(strings.TrimSuffix(name, ".mid"))
	if name == "" {
		return uuid.New().String() + ".mid"
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '.':
			return '-'
		}
		return -1
	}, name)
	if clean == "" {
		return uuid.New().String() + ".mid"
	}
	return clean + ".mid"
}

// ExportPath resolves name inside EXPORT_PATH, creating the directory.
func ExportPath(name string) (string, error) {
	dir := constants.GetExportDir()
	if err := util.EnsureDir(dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, MidiName(name)), nil
}
