// Package system loads per-system descriptors: the JSON documents (comments
// allowed) naming a system's emulator, file extensions and the master ROM
// sets its candidates come from.
package system

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// ErrNotFound reports a system without a descriptor file.
var ErrNotFound = errors.New("system descriptor not found")

// StringList accepts either a single string or a list of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*s = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single == "" {
		*s = nil
		return nil
	}
	*s = StringList{single}
	return nil
}

// RomSets names the sub-directories of each master set that hold this
// system's ROMs.
type RomSets struct {
	NoIntro       StringList `json:"NoIntro"`
	GoodSet       StringList `json:"GoodSet"`
	NoGoodSet     StringList `json:"NoGoodSet"`
	TOSEC         StringList `json:"TOSEC"`
	SoftwareLists StringList `json:"SoftwareLists"`
	Redump        StringList `json:"Redump"`
}

// Descriptor is one system's configuration.
type Descriptor struct {
	Name         string     `json:"-"`
	Emulator     string     `json:"emulator"`
	Extensions   StringList `json:"extensions"`
	Year         string     `json:"year"`
	PlatformType string     `json:"platformType"`
	Manufacturer string     `json:"manufacturer"`
	RomSets      RomSets    `json:"romSets"`
	GamesDB      struct {
		Platform struct {
			Manufacturer string `json:"manufacturer"`
		} `json:"Platform"`
	} `json:"GamesDbData"`
}

// Load reads <dir>/<name>.json (or .jsonc).
func Load(dir, name string) (*Descriptor, error) {
	var (
		data []byte
		err  error
	)
	for _, ext := range []string{".json", ".jsonc"} {
		data, err = os.ReadFile(filepath.Join(dir, name+ext))
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read system descriptor %s: %w", name, err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, dir)
	}
	return Parse(name, data)
}

// Parse decodes a descriptor document.
func Parse(name string, data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(jsonc.ToJSON(data), &d); err != nil {
		return nil, fmt.Errorf("parse system descriptor %s: %w", name, err)
	}
	d.Name = name
	exts := make(StringList, 0, len(d.Extensions))
	for _, ext := range d.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		return nil, fmt.Errorf("system descriptor %s: extensions must list at least one entry", name)
	}
	d.Extensions = exts
	if d.Manufacturer == "" {
		d.Manufacturer = d.GamesDB.Platform.Manufacturer
	}
	return &d, nil
}

// CanonicalExtension is the first listed extension, without a dot.
func (d *Descriptor) CanonicalExtension() string {
	return d.Extensions[0]
}

// SourceRoots joins the configured master set roots (keyed NoIntro, GoodSet,
// NoGoodSet, TOSEC, SoftwareLists, Redump) with this system's sub-directories.
// Order is NoIntro, GoodSet, NoGoodSet, TOSEC, SoftwareLists, Redump so the
// curated sets win fingerprint ties. TOSEC sub-directories sit under the
// manufacturer folder. Sets whose root is not configured are skipped.
func (d *Descriptor) SourceRoots(masters map[string]string) []string {
	var roots []string
	add := func(key string, subdirs StringList, prefix ...string) {
		root := masters[key]
		if root == "" {
			return
		}
		for _, sub := range subdirs {
			parts := append([]string{root}, prefix...)
			roots = append(roots, filepath.Join(append(parts, sub)...))
		}
	}
	add("NoIntro", d.RomSets.NoIntro)
	add("GoodSet", d.RomSets.GoodSet)
	add("NoGoodSet", d.RomSets.NoGoodSet)
	if d.Manufacturer != "" {
		add("TOSEC", d.RomSets.TOSEC, d.Manufacturer)
	} else {
		add("TOSEC", d.RomSets.TOSEC)
	}
	add("SoftwareLists", d.RomSets.SoftwareLists)
	add("Redump", d.RomSets.Redump)
	return roots
}

// List returns the system names that have a descriptor in dir, sorted.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".json" && ext != ".jsonc" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	return names, nil
}
