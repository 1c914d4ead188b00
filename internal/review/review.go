// Package review persists the fuzzy review queue of a system as a YAML file a
// curator edits by hand: setting accept: true on an item approves it for the
// next `romset review apply`.
package review

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/beano38/retro-manager/internal/fingerprint"
	"github.com/beano38/retro-manager/internal/fuzzy"
)

// Item is one queued pairing.
type Item struct {
	Wanted      string  `yaml:"wanted"`
	Candidate   string  `yaml:"candidate"`
	Confidence  float64 `yaml:"confidence"`
	Fingerprint string  `yaml:"fingerprint"`
	Container   string  `yaml:"container"`
	Member      string  `yaml:"member"`
	Accept      bool    `yaml:"accept"`
}

// File is the on-disk review document.
type File struct {
	System      string    `yaml:"system"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Items       []Item    `yaml:"items"`
}

func (it Item) key() string {
	return it.Wanted + "\x00" + it.Container + "\x00" + it.Member
}

// ReviewItem converts the item back to the resolver's form.
func (it Item) ReviewItem() (fuzzy.ReviewItem, error) {
	fp, err := fingerprint.Parse(it.Fingerprint)
	if err != nil {
		return fuzzy.ReviewItem{}, fmt.Errorf("review item %q: %w", it.Wanted, err)
	}
	return fuzzy.ReviewItem{
		WantedName:    it.Wanted,
		CandidateName: it.Candidate,
		Confidence:    it.Confidence,
		Fingerprint:   fp,
		ContainerPath: it.Container,
		MemberName:    it.Member,
	}, nil
}

// New builds a review document for system from the resolver queue, keeping
// the accept flag of matching items in previous.
func New(system string, queue []fuzzy.ReviewItem, previous *File, now time.Time) *File {
	accepted := map[string]bool{}
	if previous != nil {
		for _, it := range previous.Items {
			if it.Accept {
				accepted[it.key()] = true
			}
		}
	}
	f := &File{System: system, GeneratedAt: now.UTC(), Items: make([]Item, 0, len(queue))}
	for _, q := range queue {
		it := Item{
			Wanted:      q.WantedName,
			Candidate:   q.CandidateName,
			Confidence:  q.Confidence,
			Fingerprint: q.Fingerprint.String(),
			Container:   q.ContainerPath,
			Member:      q.MemberName,
		}
		it.Accept = accepted[it.key()]
		f.Items = append(f.Items, it)
	}
	return f
}

// Load reads a review document. A missing file yields (nil, nil).
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read review file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse review file %s: %w", path, err)
	}
	return &f, nil
}

// Write replaces the document at path. An empty queue removes the file.
func Write(path string, f *File) error {
	if f == nil || len(f.Items) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove review file: %w", err)
		}
		return nil
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode review file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create review directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write review file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace review file: %w", err)
	}
	return nil
}

// Accepted returns the approved items, at most one per wanted title: when a
// curator accepts several candidates for one title the most confident wins.
func (f *File) Accepted() []Item {
	if f == nil {
		return nil
	}
	var out []Item
	seen := map[string]int{}
	for _, it := range f.Items {
		if !it.Accept {
			continue
		}
		if idx, ok := seen[it.Wanted]; ok {
			if it.Confidence > out[idx].Confidence {
				out[idx] = it
			}
			continue
		}
		seen[it.Wanted] = len(out)
		out = append(out, it)
	}
	return out
}

// Without drops every item for the given wanted titles.
func (f *File) Without(wanted map[string]struct{}) *File {
	if f == nil {
		return nil
	}
	out := &File{System: f.System, GeneratedAt: f.GeneratedAt}
	for _, it := range f.Items {
		if _, drop := wanted[it.Wanted]; !drop {
			out.Items = append(out.Items, it)
		}
	}
	return out
}
