package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// scalerDocument is the JSON export of a fitted StandardScaler.
type scalerDocument struct {
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
	FeatureNames []string  `json:"feature_names"`
	WithMean     *bool     `json:"with_mean"`
	WithStd      *bool     `json:"with_std"`
}

// StandardScaler standardizes features with training-time statistics:
// (x - mean) / scale. It is immutable after load.
type StandardScaler struct {
	mean         []float64
	scale        []float64
	featureNames []string
	dim          int
}

// LoadScaler reads a scaler export from path.
func LoadScaler(path string) (*StandardScaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scaler %s: %w", path, err)
	}
	return ParseScaler(data)
}

// ParseScaler decodes a scaler export. Disabled centering or scaling is
// represented by zero means or unit scales.
func ParseScaler(data []byte) (*StandardScaler, error) {
	var doc scalerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode scaler: %w", err)
	}

	withMean := doc.WithMean == nil || *doc.WithMean
	withStd := doc.WithStd == nil || *doc.WithStd

	dim := 0
	switch {
	case withMean:
		dim = len(doc.Mean)
	case withStd:
		dim = len(doc.Scale)
	default:
		dim = len(doc.FeatureNames)
	}
	if dim == 0 {
		return nil, fmt.Errorf("scaler declares no features")
	}
	if withMean && withStd && len(doc.Scale) != dim {
		return nil, fmt.Errorf("scaler mean has %d values but scale has %d", dim, len(doc.Scale))
	}
	if len(doc.FeatureNames) > 0 && len(doc.FeatureNames) != dim {
		return nil, fmt.Errorf("scaler has %d feature names for %d features", len(doc.FeatureNames), dim)
	}

	s := &StandardScaler{
		mean:         make([]float64, dim),
		scale:        make([]float64, dim),
		featureNames: doc.FeatureNames,
		dim:          dim,
	}
	for i := 0; i < dim; i++ {
		s.scale[i] = 1
		if withMean {
			s.mean[i] = doc.Mean[i]
		}
		if withStd {
			// A zero scale comes from a constant training column and leaves it unscaled.
			if sc := doc.Scale[i]; sc != 0 {
				s.scale[i] = sc
			}
		}
		if math.IsNaN(s.mean[i]) || math.IsNaN(s.scale[i]) {
			return nil, fmt.Errorf("scaler statistic for feature %d is NaN", i)
		}
	}

	return s, nil
}

// Transform returns a new standardized vector. The input is not modified.
func (s *StandardScaler) Transform(features []float64) ([]float64, error) {
	if len(features) != s.dim {
		return nil, fmt.Errorf("scaler expects %d features, got %d", s.dim, len(features))
	}
	out := make([]float64, s.dim)
	for i, x := range features {
		out[i] = (x - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

// Dim returns the number of features the scaler was fitted on.
func (s *StandardScaler) Dim() int {
	return s.dim
}

// FeatureNames returns the fitted feature names, or nil when the export has none.
func (s *StandardScaler) FeatureNames() []string {
	if len(s.featureNames) == 0 {
		return nil
	}
	out := make([]string, len(s.featureNames))
	copy(out, s.featureNames)
	return out
}
