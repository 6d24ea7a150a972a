package feature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/bib/services/review-service/internal/domain/feature"
)

type stubSentiment struct {
	score float64
	seen  []string
}

func (s *stubSentiment) Compound(text string) float64 {
	s.seen = append(s.seen, text)
	return s.score
}

func TestLexicalExtractor_Extract(t *testing.T) {
	sentiment := &stubSentiment{score: 0.5}
	ex := feature.NewLexicalExtractor(sentiment)

	f := ex.Extract("I love these shoes. Highly recommend.", "Great!", 5, true)

	assert.Equal(t, 37, f.ReviewLength)
	assert.Equal(t, 6, f.TitleLength)
	assert.Equal(t, 6, f.NumWords)
	assert.Equal(t, 3, f.NumSentences)
	assert.InDelta(t, 32.0/6.0, f.AvgWordLength, 1e-12)
	assert.Equal(t, 6, f.NumUniqueWords)
	// "I" is not in the lowercase stop-word list; "these" is.
	assert.Equal(t, 1, f.NumStopWords)
	assert.Equal(t, 2, f.PunctuationCount)
	assert.Equal(t, 1, f.NumCapitalizedWords)
	assert.Equal(t, 0.5, f.SentimentScore)
	assert.Equal(t, 185, f.ReviewLengthXRating)
	assert.Equal(t, 5, f.VerifiedPurchaseXRating)

	require.Len(t, sentiment.seen, 1)
	assert.Equal(t, "I love these shoes. Highly recommend.", sentiment.seen[0])
}

func TestLexicalExtractor_EmptyText(t *testing.T) {
	ex := feature.NewLexicalExtractor(&stubSentiment{})

	f := ex.Extract("", "", 3, false)

	assert.Equal(t, 0, f.ReviewLength)
	assert.Equal(t, 0, f.NumWords)
	assert.Equal(t, 1, f.NumSentences)
	assert.Equal(t, 0.0, f.AvgWordLength)
	assert.Equal(t, 0, f.NumUniqueWords)
	assert.Equal(t, 0, f.ReviewLengthXRating)
	assert.Equal(t, 0, f.VerifiedPurchaseXRating)
}

func TestLexicalExtractor_CountsCharactersNotBytes(t *testing.T) {
	ex := feature.NewLexicalExtractor(&stubSentiment{})

	f := ex.Extract("café naïve", "über", 2, false)

	assert.Equal(t, 10, f.ReviewLength)
	assert.Equal(t, 4, f.TitleLength)
	assert.Equal(t, 2, f.NumWords)
	assert.InDelta(t, 4.5, f.AvgWordLength, 1e-12)
	assert.Equal(t, 20, f.ReviewLengthXRating)
}

func TestLexicalExtractor_CapitalizedWords(t *testing.T) {
	tests := []struct {
		text     string
		expected int
	}{
		{"HELLO world", 1},
		{"Hello World", 0},
		{"WOW!! A1 GREAT", 3},
		{"123 !!! ...", 0},
		{"ÉTÉ été", 1},
		{"Aª", 0},
		{"Ⅳ Ⓐ", 2},
		{"ǅ", 0},
	}

	ex := feature.NewLexicalExtractor(&stubSentiment{})
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, ex.Extract(tt.text, "", 1, false).NumCapitalizedWords)
		})
	}
}

func TestLexicalExtractor_StopWordsAreCaseSensitive(t *testing.T) {
	ex := feature.NewLexicalExtractor(&stubSentiment{})

	f := ex.Extract("the The THE don't Don't", "", 1, false)

	assert.Equal(t, 2, f.NumStopWords)
	assert.Equal(t, 5, f.NumUniqueWords)
}

func TestLexicalExtractor_UniqueWordsKeepPunctuation(t *testing.T) {
	ex := feature.NewLexicalExtractor(&stubSentiment{})

	f := ex.Extract("good good. good", "", 1, false)

	assert.Equal(t, 3, f.NumWords)
	assert.Equal(t, 2, f.NumUniqueWords)
	assert.Equal(t, 2, f.NumSentences)
}

func TestLexicalExtractor_PunctuationIsASCIIOnly(t *testing.T) {
	ex := feature.NewLexicalExtractor(&stubSentiment{})

	f := ex.Extract("wow… “great” $5 @home #1 ~ok", "", 1, false)

	assert.Equal(t, 4, f.PunctuationCount)
}

func TestLexicalExtractor_WhitespaceRuns(t *testing.T) {
	ex := feature.NewLexicalExtractor(&stubSentiment{})

	f := ex.Extract("  one\t\ttwo\nthree\u001cfour  ", "", 1, false)

	assert.Equal(t, 4, f.NumWords)
}

func TestLexicalFeatures_VectorOrder(t *testing.T) {
	f := feature.LexicalFeatures{
		ReviewLength:            1,
		TitleLength:             2,
		NumWords:                3,
		NumSentences:            4,
		AvgWordLength:           5.5,
		NumUniqueWords:          6,
		NumStopWords:            7,
		PunctuationCount:        8,
		NumCapitalizedWords:     9,
		SentimentScore:          -0.25,
		ReviewLengthXRating:     11,
		VerifiedPurchaseXRating: 12,
	}

	assert.Equal(t, []float64{1, 2, 3, 4, 5.5, 6, 7, 8, 9, -0.25, 11, 12}, f.Vector())
	assert.Len(t, feature.LexicalFeatureNames(), feature.LexicalLen)
	assert.Equal(t, "review_length", feature.LexicalFeatureNames()[0])
	assert.Equal(t, "verified_purchase_x_rating", feature.LexicalFeatureNames()[11])
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, feature.IsStopWord("i"))
	assert.True(t, feature.IsStopWord("wouldn't"))
	assert.True(t, feature.IsStopWord("should've"))
	assert.False(t, feature.IsStopWord("I"))
	assert.False(t, feature.IsStopWord("shoes"))
}
