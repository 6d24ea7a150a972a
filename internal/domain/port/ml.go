package port

import (
	"context"

	"github.com/bibbank/bib/services/review-service/internal/domain/valueobject"
)

// Embedder turns a text field into a fixed-width vector.
type Embedder interface {
	// Embed returns a vector of exactly Width() values.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Width is the embedding dimensionality, fixed for the lifetime of the process.
	Width() int
}

// SentimentAnalyzer scores text polarity.
type SentimentAnalyzer interface {
	// Compound returns the normalized polarity of text in [-1, 1].
	Compound(text string) float64
}

// Scaler applies a transform fitted at training time.
type Scaler interface {
	Transform(features []float64) ([]float64, error)

	// Dim is the number of features the scaler was fitted on.
	Dim() int
}

// Classifier maps a scaled feature vector to class probabilities.
type Classifier interface {
	// PredictProba returns P(fake) and P(real).
	PredictProba(features []float64) (pFake, pReal float64, err error)

	// Predict returns the most probable class.
	Predict(features []float64) (valueobject.ReviewLabel, error)

	// NumFeatures is the input width the model was trained on.
	NumFeatures() int
}
