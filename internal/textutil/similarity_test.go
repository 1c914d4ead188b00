package textutil

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "Contra (USA)", "Contra (USA)", 1},
		{"both empty", "", "", 1},
		{"one empty", "Contra", "", 0},
		{"disjoint", "abc", "xyz", 0},
		{"partial", "Mega Man 2", "Megaman 2 (U)", 18.0 / 23.0},
		{"case folded", "abc", "ABC", 1},
		{"case folded partial", "CONTRA", "contra (u)", 0.75},
		{"single edit", "abcd", "abce", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Mega Man 2", "Megaman 2 (U)"},
		{"Super Mario Bros. 3", "Super Mario Bros 3 (U) (PRG1)"},
		{"Zelda II", "Zelda 2"},
	}
	for _, p := range pairs {
		if Similarity(p[0], p[1]) != Similarity(p[1], p[0]) {
			t.Errorf("Similarity not symmetric for %q/%q", p[0], p[1])
		}
	}
}

func TestSimilarityNormalizesComposition(t *testing.T) {
	composed := "Pok\u00e9mon"
	decomposed := "Poke\u0301mon"
	if got := Similarity(composed, decomposed); got != 1 {
		t.Fatalf("expected NFC forms to compare equal, got %v", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Zelda II: The Adventure of Link", "Zelda II - The Adventure of Link"},
		{"  Mega Man 2  ", "Mega Man 2"},
		{"What?", "What"},
		{"AC/DC", "AC-DC"},
		{"Dr. Mario.", "Dr. Mario"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripExtension(t *testing.T) {
	if got := StripExtension("Megaman 2 (U).nes"); got != "Megaman 2 (U)" {
		t.Fatalf("unexpected stripped name %q", got)
	}
	if got := StripExtension("NoExtension"); got != "NoExtension" {
		t.Fatalf("unexpected stripped name %q", got)
	}
}
