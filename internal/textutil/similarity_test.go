package textutil

import (
	"math"
	"testing"
)

func TestCosineSimilarityNil(t *testing.T) {
	tests := []struct {
		name string
		a    *Fingerprint
		b    *Fingerprint
	}{
		{"both nil", nil, nil},
		{"a nil", nil, NewFingerprint("hello world")},
		{"b nil", NewFingerprint("hello world"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); got != 0 {
				t.Errorf("CosineSimilarity() = %v, want 0", got)
			}
		})
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	a := NewFingerprint("Let It Be")
	b := NewFingerprint("let it be")

	if got := CosineSimilarity(a, b); math.Abs(got-1) > 1e-9 {
		t.Errorf("CosineSimilarity(identical) = %v, want 1.0", got)
	}
}

func TestCosineSimilarityDifferent(t *testing.T) {
	a := NewFingerprint("Hey Jude")
	b := NewFingerprint("Come Together")

	if got := CosineSimilarity(a, b); got != 0 {
		t.Errorf("CosineSimilarity(different) = %v, want 0", got)
	}
}

func TestCosineSimilarityPartialOverlap(t *testing.T) {
	a := NewFingerprint("Let It Be (Remastered)")
	b := NewFingerprint("Let It Be")

	got := CosineSimilarity(a, b)
	if got <= 0 || got >= 1 {
		t.Errorf("CosineSimilarity(partial) = %v, want between 0 and 1", got)
	}
}

func TestTokenizeFoldsAndSplits(t *testing.T) {
	got := Tokenize("Beyoncé - Déjà Vu (feat. Jay-Z)")
	want := []string{"beyonce", "deja", "vu", "feat", "jay", "z"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokenize = %v, want %v", got, want)
		}
	}
	if NewFingerprint("  -- ") != nil {
		t.Fatal("expected nil fingerprint for punctuation-only text")
	}
	if NewFingerprint("a a b").TokenCount() != 2 {
		t.Fatal("expected two unique tokens")
	}
}

func TestFoldDiacritics(t *testing.T) {
	tests := map[string]string{
		"Beyoncé":        "Beyonce",
		"Motörhead":      "Motorhead",
		"Sigur Rós":      "Sigur Ros",
		"plain":          "plain",
		"":               "",
		"Ólafur Arnalds": "Olafur Arnalds",
	}
	for in, want := range tests {
		if got := FoldDiacritics(in); got != want {
			t.Errorf("FoldDiacritics(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		`AC/DC`:               "ACDC",
		`What?  Is   "This"`:  "What Is This",
		` ..Hidden.. `:        "Hidden",
		`a<b>c:d|e*f\g`:       "abcdefg",
		"Tabs\tand\nnewlines": "Tabs and newlines",
		"":                    "",
	}
	for in, want := range tests {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
