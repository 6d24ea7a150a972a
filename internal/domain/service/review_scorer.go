package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/bib/services/review-service/internal/domain/feature"
	"github.com/bibbank/bib/services/review-service/internal/domain/model"
	"github.com/bibbank/bib/services/review-service/internal/domain/port"
	"github.com/bibbank/bib/services/review-service/internal/domain/valueobject"
)

// Pipeline stage names, reported in InferenceError and span names.
const (
	StageEmbed    = "embed"
	StageAssemble = "assemble"
	StageScale    = "scale"
	StageClassify = "classify"
)

// Scorer scores a single review.
type Scorer interface {
	Score(ctx context.Context, review *model.Review) (valueobject.Prediction, error)
}

// ReviewScorer runs the inference pipeline:
// embed the three text fields, extract lexical features, encode metadata,
// assemble, scale, classify. It holds no mutable state after construction
// and is safe for concurrent use.
type ReviewScorer struct {
	embedder   port.Embedder
	lexical    *feature.LexicalExtractor
	assembler  *feature.Assembler
	scaler     port.Scaler
	classifier port.Classifier
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewReviewScorer wires the pipeline around a loaded feature schema and
// checks that every component agrees with it.
func NewReviewScorer(
	schema *feature.Schema,
	embedder port.Embedder,
	sentiment port.SentimentAnalyzer,
	scaler port.Scaler,
	classifier port.Classifier,
	logger *slog.Logger,
) (*ReviewScorer, error) {
	if schema == nil {
		return nil, fmt.Errorf("feature schema is required")
	}
	if embedder.Width() != schema.EmbeddingWidth() {
		return nil, fmt.Errorf("%w: embedder width is %d, schema expects %d",
			model.ErrFeatureSchemaMismatch, embedder.Width(), schema.EmbeddingWidth())
	}
	if scaler.Dim() != schema.Len() {
		return nil, fmt.Errorf("%w: scaler expects %d features, pipeline produces %d",
			model.ErrFeatureSchemaMismatch, scaler.Dim(), schema.Len())
	}
	if classifier.NumFeatures() != schema.Len() {
		return nil, fmt.Errorf("%w: classifier expects %d features, pipeline produces %d",
			model.ErrFeatureSchemaMismatch, classifier.NumFeatures(), schema.Len())
	}

	return &ReviewScorer{
		embedder:   embedder,
		lexical:    feature.NewLexicalExtractor(sentiment),
		assembler:  feature.NewAssembler(schema),
		scaler:     scaler,
		classifier: classifier,
		tracer:     otel.Tracer("review-service/scorer"),
		logger:     logger,
	}, nil
}

// Score returns P(fake), P(real) and the predicted label for the review.
func (s *ReviewScorer) Score(ctx context.Context, review *model.Review) (valueobject.Prediction, error) {
	ctx, span := s.tracer.Start(ctx, "ReviewScorer.Score",
		trace.WithAttributes(attribute.String("review.category", review.ProductCategory().String())))
	defer span.End()

	prediction, err := s.score(ctx, review)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return valueobject.Prediction{}, err
	}

	span.SetAttributes(
		attribute.Float64("prediction.fake", prediction.Fake()),
		attribute.String("prediction.label", prediction.Label().String()),
	)
	return prediction, nil
}

func (s *ReviewScorer) score(ctx context.Context, review *model.Review) (valueobject.Prediction, error) {
	embeddings, err := s.embed(ctx, review)
	if err != nil {
		return valueobject.Prediction{}, model.NewInferenceError(StageEmbed, err)
	}

	lexical := s.lexical.Extract(review.ReviewText(), review.ReviewTitle(), review.Rating(), review.VerifiedPurchase())
	meta := feature.EncodeMetadata(review.Rating(), review.VerifiedPurchase(), review.ProductCategory())

	vector, err := s.assembler.Assemble(feature.Blocks{
		ProductTitle: embeddings[0],
		ReviewTitle:  embeddings[1],
		ReviewText:   embeddings[2],
		Lexical:      lexical.Vector(),
		Metadata:     meta,
	})
	if err != nil {
		return valueobject.Prediction{}, model.NewInferenceError(StageAssemble, err)
	}

	scaled, err := s.scaler.Transform(vector)
	if err != nil {
		return valueobject.Prediction{}, model.NewInferenceError(StageScale, err)
	}

	pFake, pReal, err := s.classifier.PredictProba(scaled)
	if err != nil {
		return valueobject.Prediction{}, model.NewInferenceError(StageClassify, err)
	}

	label, err := s.classifier.Predict(scaled)
	if err != nil {
		return valueobject.Prediction{}, model.NewInferenceError(StageClassify, err)
	}

	prediction, err := valueobject.NewClassifiedPrediction(pFake, pReal, label)
	if err != nil {
		return valueobject.Prediction{}, model.NewInferenceError(StageClassify, err)
	}

	s.logger.DebugContext(ctx, "review scored",
		"fake", prediction.Fake(),
		"real", prediction.Real(),
		"review_length", lexical.ReviewLength,
		"sentiment", lexical.SentimentScore,
	)

	return prediction, nil
}

// embed runs the three field embeddings one after another and returns them
// in product title, review title, review text order.
func (s *ReviewScorer) embed(ctx context.Context, review *model.Review) ([3][]float64, error) {
	ctx, span := s.tracer.Start(ctx, "ReviewScorer.embed")
	defer span.End()

	texts := [3]string{review.ProductTitle(), review.ReviewTitle(), review.ReviewText()}
	var out [3][]float64

	for i, text := range texts {
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return out, err
		}
		out[i] = vec
	}
	return out, nil
}
