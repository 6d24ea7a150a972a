package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"

	"github.com/bibbank/bib/services/review-service/internal/domain/port"
)

// Compile-time interface check.
var _ port.SentimentAnalyzer = (*VaderAnalyzer)(nil)

// VaderAnalyzer scores text with the VADER lexicon and rules.
// The lexicon is loaded once; scoring only reads it.
type VaderAnalyzer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderAnalyzer loads the VADER lexicon.
func NewVaderAnalyzer() *VaderAnalyzer {
	return &VaderAnalyzer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Compound returns the normalized VADER compound score in [-1, 1].
// Blank text scores 0.
func (v *VaderAnalyzer) Compound(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return v.analyzer.PolarityScores(text).Compound
}
