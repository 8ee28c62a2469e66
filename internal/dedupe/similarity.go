package dedupe

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/pmezard/go-difflib/difflib"

	"tunekeep/internal/textutil"
)

// Scorer compares two strings and returns a similarity in [0, 1].
// Implementations must be symmetric and return 0 when either side is empty.
type Scorer func(a, b string) float64

// Scorer names accepted by ScorerByName.
const (
	ScorerRatio       = "ratio"
	ScorerJaroWinkler = "jaro-winkler"
	ScorerLevenshtein = "levenshtein"
	ScorerTokenCosine = "token-cosine"
)

// Similarity returns the Ratcliff/Obershelp ratio (2*M/T over matching
// blocks) of the lower-cased inputs.
func Similarity(a, b string) float64 {
	a, b, ok := canonicalPair(a, b)
	if !ok {
		return 0
	}
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// ScorerByName resolves a configured scorer. An empty name selects Similarity.
func ScorerByName(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ScorerRatio:
		return Similarity, nil
	case ScorerJaroWinkler:
		return edlibScorer(edlib.JaroWinkler), nil
	case ScorerLevenshtein:
		return edlibScorer(edlib.Levenshtein), nil
	case ScorerTokenCosine:
		return tokenCosine, nil
	default:
		return nil, fmt.Errorf("unknown similarity scorer %q", name)
	}
}

func edlibScorer(algo edlib.Algorithm) Scorer {
	return func(a, b string) float64 {
		a, b, ok := canonicalPair(a, b)
		if !ok {
			return 0
		}
		if a == b {
			return 1
		}
		sim, err := edlib.StringsSimilarity(a, b, algo)
		if err != nil {
			return 0
		}
		return clamp(float64(sim))
	}
}

func tokenCosine(a, b string) float64 {
	a, b, ok := canonicalPair(a, b)
	if !ok {
		return 0
	}
	return clamp(textutil.CosineSimilarity(textutil.NewFingerprint(a), textutil.NewFingerprint(b)))
}

// canonicalPair lower-cases both inputs and orders them so every scorer sees
// the same argument order regardless of call order.
func canonicalPair(a, b string) (string, string, bool) {
	if a == "" || b == "" {
		return "", "", false
	}
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a > b {
		a, b = b, a
	}
	return a, b, true
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
