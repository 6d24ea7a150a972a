package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bibbank/bib/services/review-service/internal/application/dto"
	"github.com/bibbank/bib/services/review-service/internal/domain/model"
)

// Predictor is the application entry point the handler depends on.
type Predictor interface {
	Execute(ctx context.Context, req dto.PredictRequest) (dto.PredictionResult, error)
}

// PredictionHandler serves the scoring endpoints.
type PredictionHandler struct {
	predictor Predictor
	maxBytes  int64
	logger    *slog.Logger
}

// NewPredictionHandler creates a handler that caps request bodies at maxBytes.
func NewPredictionHandler(predictor Predictor, maxBytes int64, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{
		predictor: predictor,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Predict handles POST /predict.
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	result, ok := h.execute(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, result.ToPredictResponse())
}

// PredictDetailed handles POST /predict/detailed.
func (h *PredictionHandler) PredictDetailed(w http.ResponseWriter, r *http.Request) {
	result, ok := h.execute(w, r)
	if !ok {
		return
	}
	result.RequestID = RequestIDFromContext(r.Context())
	WriteJSON(w, http.StatusOK, result)
}

func (h *PredictionHandler) execute(w http.ResponseWriter, r *http.Request) (dto.PredictionResult, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	req, err := dto.DecodePredictRequest(r.Body)
	if err != nil {
		h.fail(w, r, err)
		return dto.PredictionResult{}, false
	}

	result, err := h.predictor.Execute(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return dto.PredictionResult{}, false
	}
	return result, true
}

func (h *PredictionHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	requestID := RequestIDFromContext(r.Context())
	if errors.Is(err, model.ErrInvalidInput) {
		h.logger.Warn("rejected prediction request", "error", err, "request_id", requestID)
	} else {
		h.logger.Error("prediction failed", "error", err, "request_id", requestID)
	}
	WriteError(w, err)
}
