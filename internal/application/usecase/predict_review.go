package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/bib/services/review-service/internal/application/dto"
	"github.com/bibbank/bib/services/review-service/internal/domain/model"
	"github.com/bibbank/bib/services/review-service/internal/domain/service"
)

// Error kinds recorded on review_prediction_errors_total.
const (
	errorKindValidation = "validation"
	errorKindInference  = "inference"
)

// PredictReview is the use case for scoring one review.
type PredictReview struct {
	scorer      service.Scorer
	logger      *slog.Logger
	predictions metric.Int64Counter
	failures    metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewPredictReview creates a new PredictReview use case.
func NewPredictReview(scorer service.Scorer, meter metric.Meter, logger *slog.Logger) (*PredictReview, error) {
	predictions, err := meter.Int64Counter(
		"review_predictions_total",
		metric.WithDescription("Reviews scored, by predicted label."),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create predictions counter: %w", err)
	}

	failures, err := meter.Int64Counter(
		"review_prediction_errors_total",
		metric.WithDescription("Failed predictions, by error kind."),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create errors counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"review_prediction_duration_seconds",
		metric.WithDescription("End-to-end latency of a prediction."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &PredictReview{
		scorer:      scorer,
		logger:      logger,
		predictions: predictions,
		failures:    failures,
		duration:    duration,
	}, nil
}

// Execute validates the request, scores the review and maps the result.
func (uc *PredictReview) Execute(ctx context.Context, req dto.PredictRequest) (dto.PredictionResult, error) {
	start := time.Now()
	defer func() {
		uc.duration.Record(ctx, time.Since(start).Seconds())
	}()

	// 1. Build the domain review; this validates every field.
	review, err := req.ToReview()
	if err != nil {
		uc.recordFailure(ctx, err)
		return dto.PredictionResult{}, err
	}

	// 2. Run the inference pipeline.
	prediction, err := uc.scorer.Score(ctx, review)
	if err != nil {
		uc.recordFailure(ctx, err)
		return dto.PredictionResult{}, fmt.Errorf("failed to score review: %w", err)
	}

	// 3. Map to the output DTO.
	result := dto.FromPrediction(prediction)
	uc.predictions.Add(ctx, 1, metric.WithAttributes(attribute.String("label", result.Label)))

	uc.logger.InfoContext(ctx, "review scored",
		"label", result.Label,
		"fake", result.Fake,
		"category", review.ProductCategory().String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

func (uc *PredictReview) recordFailure(ctx context.Context, err error) {
	kind := errorKindInference
	if errors.Is(err, model.ErrInvalidInput) {
		kind = errorKindValidation
	}
	uc.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
