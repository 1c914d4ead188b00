// Package fuzzy pairs wanted titles that have no usable checksum match with
// candidates whose file names are close enough.
package fuzzy

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"

	"github.com/beano38/retro-manager/internal/candidates"
	"github.com/beano38/retro-manager/internal/fingerprint"
	"github.com/beano38/retro-manager/internal/manifest"
	"github.com/beano38/retro-manager/internal/reconcile"
	"github.com/beano38/retro-manager/internal/textutil"
)

// ReviewItem is a plausible but uncertain pairing awaiting a human decision.
type ReviewItem struct {
	WantedName    string
	CandidateName string
	Confidence    float64
	Fingerprint   fingerprint.Fingerprint
	ContainerPath string
	MemberName    string
}

// Resolve scores every unmatched entry against every candidate member name
// (folder prefix and extension stripped). An identical name is accepted outright using the
// first such candidate in inventory order. Scores in [threshold, 1) become
// review items unless the entry was accepted. The review queue is ordered by
// descending confidence, ties keeping manifest then inventory order.
func Resolve(unmatched []manifest.Entry, inv *candidates.Inventory, threshold float64, layout reconcile.Layout) ([]reconcile.MatchResult, []ReviewItem, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, nil, fmt.Errorf("fuzzy threshold %v must be in (0, 1]", threshold)
	}

	pool := inv.Entries()
	names := make([]string, len(pool))
	for idx, c := range pool {
		names[idx] = textutil.StripExtension(path.Base(filepath.ToSlash(c.MemberName)))
	}

	var (
		auto   []reconcile.MatchResult
		review []ReviewItem
	)
	for _, wanted := range unmatched {
		var (
			pending  []ReviewItem
			accepted bool
		)
		for idx, c := range pool {
			score := textutil.Similarity(wanted.Name, names[idx])
			if score >= 1 {
				auto = append(auto, reconcile.NewMatch(wanted.Name, c, reconcile.KindFuzzy, 1.0, layout))
				accepted = true
				break
			}
			if score >= threshold {
				pending = append(pending, ReviewItem{
					WantedName:    wanted.Name,
					CandidateName: names[idx],
					Confidence:    score,
					Fingerprint:   c.Fingerprint,
					ContainerPath: c.ContainerPath,
					MemberName:    c.MemberName,
				})
			}
		}
		if !accepted {
			review = append(review, pending...)
		}
	}

	sort.SliceStable(review, func(i, j int) bool {
		return review[i].Confidence > review[j].Confidence
	})
	return auto, review, nil
}

// Promote turns an accepted review item into a match.
func Promote(item ReviewItem, layout reconcile.Layout) reconcile.MatchResult {
	c := candidates.Entry{
		Fingerprint:   item.Fingerprint,
		ContainerPath: item.ContainerPath,
		MemberName:    item.MemberName,
	}
	return reconcile.NewMatch(item.WantedName, c, reconcile.KindFuzzy, item.Confidence, layout)
}
