package levels

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	ErrLevelNotFound = eris.New("levels: level not found")
	ErrInvalidName   = eris.New("levels: invalid level name")
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidName reports whether name can be used as a level file stem.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// Store reads and writes one JSON document per level under Dir. Levels that
// are absent from Dir fall back to Fallback (the bundled defaults unless
// replaced).
type Store struct {
	Dir      string
	Fallback fs.FS
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, Fallback: DefaultFS()}
}

// Path returns the on-disk location for name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name+".json")
}

// Load reads, decodes and repairs the named level. Repair warnings are
// returned alongside the level.
func (s *Store) Load(name string) (*Level, []Warning, error) {
	if !ValidName(name) {
		return nil, nil, eris.Wrapf(ErrInvalidName, "load %q", name)
	}
	data, err := s.read(name)
	if err != nil {
		return nil, nil, err
	}
	lvl, err := Decode(data)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "decode level %q", name)
	}
	lvl.Name = name
	warnings := Repair(lvl)
	return lvl, warnings, nil
}

func (s *Store) read(name string) ([]byte, error) {
	if s.Dir != "" {
		data, err := os.ReadFile(s.Path(name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(err, "read level %q", name)
		}
	}
	if s.Fallback != nil {
		data, err := fs.ReadFile(s.Fallback, name+".json")
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(err, "read bundled level %q", name)
		}
	}
	return nil, eris.Wrapf(ErrLevelNotFound, "level %q", name)
}

// Save repairs lvl and writes it under Dir, replacing any existing file.
func (s *Store) Save(name string, lvl *Level) ([]Warning, error) {
	if !ValidName(name) {
		return nil, eris.Wrapf(ErrInvalidName, "save %q", name)
	}
	if s.Dir == "" {
		return nil, eris.New("levels: store has no directory")
	}
	lvl.Name = name
	warnings := Repair(lvl)
	data, err := Encode(lvl)
	if err != nil {
		return warnings, err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return warnings, eris.Wrap(err, "create level dir")
	}
	tmp, err := os.CreateTemp(s.Dir, "."+name+"-*.json")
	if err != nil {
		return warnings, eris.Wrap(err, "create temp level file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return warnings, eris.Wrap(err, "write level")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return warnings, eris.Wrap(err, "close level")
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		os.Remove(tmp.Name())
		return warnings, eris.Wrap(err, "replace level")
	}
	return warnings, nil
}

// List returns the names of every level available on disk or bundled.
func (s *Store) List() ([]string, error) {
	set := make(map[string]struct{})
	if s.Fallback != nil {
		entries, err := fs.ReadDir(s.Fallback, ".")
		if err == nil {
			for _, e := range entries {
				addName(set, e)
			}
		}
	}
	if s.Dir != "" {
		entries, err := os.ReadDir(s.Dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrap(err, "list levels")
		}
		for _, e := range entries {
			addName(set, e)
		}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func addName(set map[string]struct{}, e fs.DirEntry) {
	if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
		return
	}
	name := strings.TrimSuffix(e.Name(), ".json")
	if ValidName(name) {
		set[name] = struct{}{}
	}
}

// NameFromPath returns the level name for a file path under a store
// directory, or false when the path is not a level file.
func NameFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if filepath.Ext(base) != ".json" {
		return "", false
	}
	name := strings.TrimSuffix(base, ".json")
	return name, ValidName(name)
}
