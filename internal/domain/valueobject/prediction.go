package valueobject

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// probabilityTolerance bounds the accepted drift of fake+real away from 1.
const probabilityTolerance = 1e-6

// probabilityPlaces is the number of decimals a probability is reported with.
const probabilityPlaces = 4

// Prediction is the class probability pair produced by the classifier.
// Class 0 is fake and class 1 is real.
type Prediction struct {
	fake  float64
	real  float64
	label ReviewLabel
}

// NewPrediction builds a Prediction from the probability of the real class.
func NewPrediction(pReal float64) (Prediction, error) {
	if math.IsNaN(pReal) || pReal < 0 || pReal > 1 {
		return Prediction{}, fmt.Errorf("probability must be within [0, 1], got %v", pReal)
	}
	return Prediction{fake: 1 - pReal, real: pReal}, nil
}

// NewPredictionPair builds a Prediction from both class probabilities.
func NewPredictionPair(pFake, pReal float64) (Prediction, error) {
	for _, p := range []float64{pFake, pReal} {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return Prediction{}, fmt.Errorf("probability must be within [0, 1], got %v", p)
		}
	}
	if math.Abs(pFake+pReal-1) > probabilityTolerance {
		return Prediction{}, fmt.Errorf("probabilities must sum to 1, got %v", pFake+pReal)
	}
	return Prediction{fake: pFake, real: pReal}, nil
}

// NewClassifiedPrediction builds a Prediction carrying the label the
// classifier chose. The label must agree with the probabilities.
func NewClassifiedPrediction(pFake, pReal float64, label ReviewLabel) (Prediction, error) {
	p, err := NewPredictionPair(pFake, pReal)
	if err != nil {
		return Prediction{}, err
	}
	if label.IsZero() {
		return Prediction{}, fmt.Errorf("prediction label is required")
	}
	if derived := p.Label(); !derived.Equal(label) {
		return Prediction{}, fmt.Errorf("label %s disagrees with probabilities fake=%v real=%v", label, pFake, pReal)
	}
	p.label = label
	return p, nil
}

// Fake returns P(fake).
func (p Prediction) Fake() float64 { return p.fake }

// Real returns P(real).
func (p Prediction) Real() float64 { return p.real }

// Label returns the most probable class. Ties resolve to real.
func (p Prediction) Label() ReviewLabel {
	if !p.label.IsZero() {
		return p.label
	}
	if p.fake > p.real {
		return LabelFake
	}
	return LabelReal
}

// RoundedFake returns P(fake) rounded to four decimal places.
func (p Prediction) RoundedFake() decimal.Decimal { return roundProbability(p.fake) }

// RoundedReal returns P(real) rounded to four decimal places.
func (p Prediction) RoundedReal() decimal.Decimal { return roundProbability(p.real) }

// String renders the pair as "Fake: 0.1234, Real: 0.8766".
func (p Prediction) String() string {
	return fmt.Sprintf("Fake: %s, Real: %s",
		p.RoundedFake().StringFixed(probabilityPlaces),
		p.RoundedReal().StringFixed(probabilityPlaces),
	)
}

// roundProbability rounds the exact binary value, ties to even, the way
// printf-style formatting does. Rounding the shortest decimal form instead
// would move values such as 0.00015 (stored just below) up a digit.
func roundProbability(v float64) decimal.Decimal {
	return decimal.RequireFromString(strconv.FormatFloat(v, 'f', probabilityPlaces, 64))
}
