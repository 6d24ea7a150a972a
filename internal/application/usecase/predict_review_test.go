package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/bibbank/bib/services/review-service/internal/application/dto"
	"github.com/bibbank/bib/services/review-service/internal/application/usecase"
	"github.com/bibbank/bib/services/review-service/internal/domain/model"
	"github.com/bibbank/bib/services/review-service/internal/domain/valueobject"
	"github.com/bibbank/bib/services/review-service/pkg/observability"
)

// --- Mock implementations ---

type mockScorer struct {
	pReal  float64
	err    error
	called int
	last   *model.Review
}

func (m *mockScorer) Score(_ context.Context, review *model.Review) (valueobject.Prediction, error) {
	m.called++
	m.last = review
	if m.err != nil {
		return valueobject.Prediction{}, m.err
	}
	return valueobject.NewPrediction(m.pReal)
}

// --- Helpers ---

func strPtr(s string) *string { return &s }

func ratingPtr(n int) *dto.FlexibleInt {
	r := dto.FlexibleInt(n)
	return &r
}

func validRequest() dto.PredictRequest {
	return dto.PredictRequest{
		ProductTitle:     strPtr("Blue Shoes"),
		ReviewTitle:      strPtr("Great!"),
		ReviewText:       strPtr("I love these shoes. Highly recommend."),
		Rating:           ratingPtr(5),
		VerifiedPurchase: strPtr("Yes"),
		ProductCategory:  strPtr("Shoes"),
	}
}

func newUseCase(t *testing.T, scorer *mockScorer) (*usecase.PredictReview, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	uc, err := usecase.NewPredictReview(scorer, provider.Meter("test"), observability.NopLogger())
	require.NoError(t, err)
	return uc, reader
}

// counterValue sums the data points of an int64 counter carrying key=value.
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name, key, value string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
					total += dp.Value
				}
			}
		}
	}
	return total
}

// --- Tests ---

func TestPredictReview_Execute(t *testing.T) {
	t.Run("scores a valid review", func(t *testing.T) {
		scorer := &mockScorer{pReal: 0.8766}
		uc, reader := newUseCase(t, scorer)

		result, err := uc.Execute(context.Background(), validRequest())
		require.NoError(t, err)

		assert.Equal(t, "Fake: 0.1234, Real: 0.8766", result.Summary)
		assert.Equal(t, "real", result.Label)
		assert.InDelta(t, 0.1234, result.Fake, 1e-12)
		assert.Equal(t, 1, scorer.called)
		assert.Equal(t, "Shoes", scorer.last.ProductCategory().String())
		assert.Equal(t, int64(1), counterValue(t, reader, "review_predictions_total", "label", "real"))
	})

	t.Run("rejects invalid input without scoring", func(t *testing.T) {
		scorer := &mockScorer{pReal: 0.5}
		uc, reader := newUseCase(t, scorer)

		req := validRequest()
		req.ProductCategory = strPtr("Spaceships")

		_, err := uc.Execute(context.Background(), req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrInvalidInput))
		assert.Equal(t, 0, scorer.called)
		assert.Equal(t, int64(1), counterValue(t, reader, "review_prediction_errors_total", "kind", "validation"))
	})

	t.Run("propagates inference failures", func(t *testing.T) {
		scorer := &mockScorer{err: model.NewInferenceError("embed", fmt.Errorf("runtime down"))}
		uc, reader := newUseCase(t, scorer)

		_, err := uc.Execute(context.Background(), validRequest())
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrInference))
		assert.False(t, errors.Is(err, model.ErrInvalidInput))
		assert.Equal(t, int64(1), counterValue(t, reader, "review_prediction_errors_total", "kind", "inference"))
		assert.Equal(t, int64(0), counterValue(t, reader, "review_predictions_total", "label", "real"))
	})

	t.Run("fake label", func(t *testing.T) {
		uc, reader := newUseCase(t, &mockScorer{pReal: 0.1})

		result, err := uc.Execute(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, "fake", result.Label)
		assert.Equal(t, int64(1), counterValue(t, reader, "review_predictions_total", "label", "fake"))
	})
}
