// Package manifest reads the wanted ROM catalog for a system: a HyperSpin
// style XML database listing one <game> per wanted title.
package manifest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/beano38/retro-manager/internal/fingerprint"
	"github.com/beano38/retro-manager/internal/logging"
	"github.com/beano38/retro-manager/internal/textutil"
)

var (
	// ErrManifestMissing reports a system whose manifest file does not exist.
	ErrManifestMissing = errors.New("manifest missing")
	// ErrManifestInvalid reports a manifest that is not a readable game list.
	ErrManifestInvalid = errors.New("manifest invalid")
)

// Header is the database header block.
type Header struct {
	ListName        string `xml:"listname"`
	LastListUpdate  string `xml:"lastlistupdate"`
	ListVersion     string `xml:"listversion"`
	ExporterVersion string `xml:"exporterversion"`
}

// Entry is one wanted title. Name is the canonical name materialized files
// take. CRC is null when the manifest has no usable checksum. Have is set by
// the holdings audit.
type Entry struct {
	Name         string
	Index        string
	Image        string
	Description  string
	CloneOf      string
	CRC          fingerprint.Fingerprint
	Manufacturer string
	Year         string
	Genre        string
	Rating       string
	Enabled      bool
	Have         bool
}

// Manifest is a parsed game list in document order.
type Manifest struct {
	Header  Header
	Entries []Entry
}

type xmlMenu struct {
	XMLName xml.Name  `xml:"menu"`
	Header  Header    `xml:"header"`
	Games   []xmlGame `xml:"game"`
}

type xmlGame struct {
	Name         string `xml:"name,attr"`
	Index        string `xml:"index,attr"`
	Image        string `xml:"image,attr"`
	Description  string `xml:"description"`
	CloneOf      string `xml:"cloneof"`
	CRC          string `xml:"crc"`
	Manufacturer string `xml:"manufacturer"`
	Year         string `xml:"year"`
	Genre        string `xml:"genre"`
	Rating       string `xml:"rating"`
	Enabled      string `xml:"enabled"`
}

// Load reads and parses the manifest at path.
func Load(path string, logger *slog.Logger) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrManifestInvalid, path, err)
	}
	defer f.Close()

	m, err := Parse(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a manifest document. Games without a name, or whose name
// leaves nothing usable as a file name, are dropped and a
// malformed checksum is logged and treated as absent; both leave the rest of
// the manifest usable.
func Parse(r io.Reader, logger *slog.Logger) (*Manifest, error) {
	logger = logging.NewComponentLogger(logger, "manifest")

	var menu xmlMenu
	dec := xml.NewDecoder(r)
	dec.Strict = false
	if err := dec.Decode(&menu); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}

	m := &Manifest{Header: menu.Header, Entries: make([]Entry, 0, len(menu.Games))}
	for _, g := range menu.Games {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			logger.Debug("game without name skipped", logging.String("description", g.Description))
			continue
		}
		if textutil.SanitizeFileName(name) == "" {
			logging.WarnWithContext(logger, "game name unusable as a file name", "manifest_name_invalid",
				logging.String(logging.FieldWanted, name),
				logging.String(logging.FieldImpact, "title is left out of the run"),
				logging.String(logging.FieldErrorHint, "give the <game> a name with letters or digits"),
			)
			continue
		}
		crc, err := fingerprint.Parse(g.CRC)
		if err != nil {
			logging.WarnWithContext(logger, "manifest checksum unreadable", "manifest_crc_invalid",
				logging.String(logging.FieldWanted, name),
				logging.String("crc", g.CRC),
				logging.String(logging.FieldImpact, "title can only be found by fuzzy name matching"),
				logging.String(logging.FieldErrorHint, "correct the <crc> value in the database"),
			)
			crc = ""
		}
		m.Entries = append(m.Entries, Entry{
			Name:         name,
			Index:        strings.TrimSpace(g.Index),
			Image:        strings.TrimSpace(g.Image),
			Description:  strings.TrimSpace(g.Description),
			CloneOf:      strings.TrimSpace(g.CloneOf),
			CRC:          crc,
			Manufacturer: strings.TrimSpace(g.Manufacturer),
			Year:         strings.TrimSpace(g.Year),
			Genre:        strings.TrimSpace(g.Genre),
			Rating:       strings.TrimSpace(g.Rating),
			Enabled:      parseEnabled(g.Enabled),
		})
	}
	return m, nil
}

// parseEnabled treats a missing flag as enabled.
func parseEnabled(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "no", "false", "0":
		return false
	default:
		return true
	}
}
