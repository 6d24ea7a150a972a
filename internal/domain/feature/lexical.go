package feature

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/bibbank/bib/services/review-service/internal/domain/port"
)

// LexicalLen is the number of hand-crafted text features.
const LexicalLen = 12

// asciiPunctuation matches the ASCII punctuation class used at training time.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var lexicalFeatureNames = [LexicalLen]string{
	"review_length",
	"title_length",
	"num_words",
	"num_sentences",
	"avg_word_length",
	"num_unique_words",
	"num_stop_words",
	"punctuation_count",
	"num_capitalized_words",
	"sentiment_score",
	"review_length_x_rating",
	"verified_purchase_x_rating",
}

// LexicalFeatureNames returns the lexical slot names in vector order.
func LexicalFeatureNames() []string {
	out := make([]string, LexicalLen)
	copy(out, lexicalFeatureNames[:])
	return out
}

// LexicalFeatures holds the hand-crafted statistics of one review.
type LexicalFeatures struct {
	ReviewLength            int
	TitleLength             int
	NumWords                int
	NumSentences            int
	AvgWordLength           float64
	NumUniqueWords          int
	NumStopWords            int
	PunctuationCount        int
	NumCapitalizedWords     int
	SentimentScore          float64
	ReviewLengthXRating     int
	VerifiedPurchaseXRating int
}

// Vector lays the features out in LexicalFeatureNames order.
func (f LexicalFeatures) Vector() []float64 {
	return []float64{
		float64(f.ReviewLength),
		float64(f.TitleLength),
		float64(f.NumWords),
		float64(f.NumSentences),
		f.AvgWordLength,
		float64(f.NumUniqueWords),
		float64(f.NumStopWords),
		float64(f.PunctuationCount),
		float64(f.NumCapitalizedWords),
		f.SentimentScore,
		float64(f.ReviewLengthXRating),
		float64(f.VerifiedPurchaseXRating),
	}
}

// LexicalExtractor computes LexicalFeatures. It is stateless apart from the
// sentiment analyzer and safe for concurrent use.
type LexicalExtractor struct {
	sentiment port.SentimentAnalyzer
}

func NewLexicalExtractor(sentiment port.SentimentAnalyzer) *LexicalExtractor {
	return &LexicalExtractor{sentiment: sentiment}
}

// Extract computes the features for a review. Lengths are counted in
// characters, not bytes.
func (e *LexicalExtractor) Extract(reviewText, reviewTitle string, rating int, verified bool) LexicalFeatures {
	words := splitWords(reviewText)
	reviewLength := utf8.RuneCountInString(reviewText)

	var avgWordLength float64
	if len(words) > 0 {
		total := lo.SumBy(words, func(w string) int { return utf8.RuneCountInString(w) })
		avgWordLength = float64(total) / float64(len(words))
	}

	verifiedFlag := 0
	if verified {
		verifiedFlag = 1
	}

	return LexicalFeatures{
		ReviewLength:            reviewLength,
		TitleLength:             utf8.RuneCountInString(reviewTitle),
		NumWords:                len(words),
		NumSentences:            strings.Count(reviewText, ".") + 1,
		AvgWordLength:           avgWordLength,
		NumUniqueWords:          len(lo.Uniq(words)),
		NumStopWords:            lo.CountBy(words, IsStopWord),
		PunctuationCount:        lo.CountBy([]rune(reviewText), isASCIIPunctuation),
		NumCapitalizedWords:     lo.CountBy(words, isUpperWord),
		SentimentScore:          e.sentiment.Compound(reviewText),
		ReviewLengthXRating:     reviewLength * rating,
		VerifiedPurchaseXRating: verifiedFlag * rating,
	}
}

// splitWords splits on runs of whitespace, including the ASCII
// information separators U+001C..U+001F.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
	})
}

func isASCIIPunctuation(r rune) bool {
	return r < utf8.RuneSelf && strings.ContainsRune(asciiPunctuation, r)
}

// isUpperWord is true when the word has at least one uppercase character
// and no lowercase or titlecase ones. "HELLO!", "A1" and "Ⅳ" qualify;
// "Hello", "123" and "Aª" do not.
func isUpperWord(w string) bool {
	cased := false
	for _, r := range w {
		switch {
		case isLowerRune(r), unicode.IsTitle(r):
			return false
		case isUpperRune(r):
			cased = true
		}
	}
	return cased
}

func isLowerRune(r rune) bool {
	return unicode.IsLower(r) || unicode.Is(unicode.Other_Lowercase, r)
}

func isUpperRune(r rune) bool {
	return unicode.IsUpper(r) || unicode.Is(unicode.Other_Uppercase, r)
}
