package reconcile

import (
	"path/filepath"

	"github.com/beano38/retro-manager/internal/candidates"
	"github.com/beano38/retro-manager/internal/fingerprint"
	"github.com/beano38/retro-manager/internal/manifest"
)

// Kind records how a match was found.
type Kind string

const (
	KindExact Kind = "exact"
	KindFuzzy Kind = "fuzzy"
)

// MatchResult pairs a wanted title with the candidate that provides it.
type MatchResult struct {
	WantedName      string
	Fingerprint     fingerprint.Fingerprint
	SourceContainer string
	SourceMember    string
	DestinationPath string
	Kind            Kind
	Confidence      float64
}

// InArchive reports whether the source is a container member.
func (m MatchResult) InArchive() bool {
	return m.SourceMember != filepath.Base(m.SourceContainer)
}

// NewMatch builds the result for wanted being provided by candidate.
func NewMatch(wanted string, candidate candidates.Entry, kind Kind, confidence float64, layout Layout) MatchResult {
	return MatchResult{
		WantedName:      wanted,
		Fingerprint:     candidate.Fingerprint,
		SourceContainer: candidate.ContainerPath,
		SourceMember:    candidate.MemberName,
		DestinationPath: layout.Destination(wanted, candidate.MemberName),
		Kind:            kind,
		Confidence:      confidence,
	}
}

// Missing returns the entries the collection does not have, in manifest
// order.
func Missing(entries []manifest.Entry) []manifest.Entry {
	var out []manifest.Entry
	for _, e := range entries {
		if !e.Have {
			out = append(out, e)
		}
	}
	return out
}

// MatchByFingerprint resolves each missing entry whose checksum appears in
// the inventory. Everything else is returned as unmatched; both slices keep
// manifest order.
func MatchByFingerprint(missing []manifest.Entry, inv *candidates.Inventory, layout Layout) ([]MatchResult, []manifest.Entry) {
	var (
		matched   []MatchResult
		unmatched []manifest.Entry
	)
	for _, e := range missing {
		candidate, ok := inv.Lookup(e.CRC)
		if !ok {
			unmatched = append(unmatched, e)
			continue
		}
		matched = append(matched, NewMatch(e.Name, candidate, KindExact, 1.0, layout))
	}
	return matched, unmatched
}
