package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bibbank/bib/services/review-service/internal/domain/model"
	"github.com/bibbank/bib/services/review-service/internal/domain/valueobject"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("product_category", func(fl validator.FieldLevel) bool {
		_, err := valueobject.CategoryFromString(fl.Field().String())
		return err == nil
	})
	return v
}

// FlexibleInt decodes from a JSON integer or from a string holding one,
// e.g. 5 or "5". Fractional values are rejected.
type FlexibleInt int

func (n *FlexibleInt) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)

	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return model.NewValidationError("rating", "must be an integer")
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return model.NewValidationError("rating", "must be an integer")
		}
		*n = FlexibleInt(v)
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return model.NewValidationError("rating", "must be an integer")
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return model.NewValidationError("rating", "must be an integer")
	}
	*n = FlexibleInt(f)
	return nil
}

// PredictRequest is the input DTO for scoring a review. Every key must be
// present; text fields may be empty.
type PredictRequest struct {
	ProductTitle     *string      `json:"product_title" validate:"required"`
	ReviewTitle      *string      `json:"review_title" validate:"required"`
	ReviewText       *string      `json:"review_text" validate:"required"`
	Rating           *FlexibleInt `json:"rating" validate:"required,min=1,max=5"`
	VerifiedPurchase *string      `json:"verified_purchase" validate:"required"`
	ProductCategory  *string      `json:"product_category" validate:"required,product_category"`
}

// DecodePredictRequest parses a request body holding exactly one JSON
// object. Syntax errors, type errors and trailing data are reported as
// *model.ValidationError; reader errors such as an exceeded body limit are
// returned wrapped.
func DecodePredictRequest(r io.Reader) (PredictRequest, error) {
	dec := json.NewDecoder(r)

	var req PredictRequest
	if err := dec.Decode(&req); err != nil {
		return PredictRequest{}, decodeError(err)
	}

	var trailing json.RawMessage
	switch err := dec.Decode(&trailing); {
	case errors.Is(err, io.EOF):
		return req, nil
	case err == nil:
		return PredictRequest{}, model.NewValidationError("body", "unexpected data after JSON object")
	default:
		if mapped := decodeError(err); !errors.Is(mapped, model.ErrInvalidInput) {
			return PredictRequest{}, mapped
		}
		return PredictRequest{}, model.NewValidationError("body", "unexpected data after JSON object")
	}
}

func decodeError(err error) error {
	var vErr *model.ValidationError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &vErr):
		return vErr
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return model.NewValidationError("body", "malformed JSON")
	case errors.Is(err, io.EOF):
		return model.NewValidationError("body", "request body is empty")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return model.NewValidationError(field, "must be a "+expectedType(typeErr))
	default:
		return fmt.Errorf("failed to read request body: %w", err)
	}
}

func expectedType(err *json.UnmarshalTypeError) string {
	if err.Type == nil {
		return "valid value"
	}
	switch err.Type.Kind() {
	case reflect.String:
		return "string"
	case reflect.Struct, reflect.Map:
		return "JSON object"
	default:
		return err.Type.String()
	}
}

// Validate checks presence, the rating range and the category vocabulary.
// The first failing field is reported.
func (r PredictRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return model.NewValidationError(fe.Field(), "is required")
	case "min", "max":
		return model.NewValidationError(fe.Field(),
			fmt.Sprintf("must be between %d and %d", model.MinRating, model.MaxRating))
	case "product_category":
		return model.NewValidationError(fe.Field(), fmt.Sprintf("unknown product category %q", fe.Value()))
	default:
		return model.NewValidationError(fe.Field(), "failed "+fe.Tag()+" check")
	}
}

// ToReview validates the request and builds the domain review.
func (r PredictRequest) ToReview() (*model.Review, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return model.NewReview(
		*r.ProductTitle,
		*r.ReviewTitle,
		*r.ReviewText,
		int(*r.Rating),
		*r.VerifiedPurchase,
		*r.ProductCategory,
	)
}

// PredictResponse is the body of POST /predict.
type PredictResponse struct {
	Prediction string `json:"prediction"`
}

// PredictionResult is the output DTO of the PredictReview use case and the
// body of POST /predict/detailed.
type PredictionResult struct {
	Summary   string  `json:"-"`
	Label     string  `json:"label"`
	RequestID string  `json:"request_id,omitempty"`
	Fake      float64 `json:"fake"`
	Real      float64 `json:"real"`
}

// FromPrediction maps a domain prediction to the result DTO. Probabilities
// are rounded to four decimal places, matching Summary.
func FromPrediction(p valueobject.Prediction) PredictionResult {
	return PredictionResult{
		Summary: p.String(),
		Label:   p.Label().String(),
		Fake:    p.RoundedFake().InexactFloat64(),
		Real:    p.RoundedReal().InexactFloat64(),
	}
}

// ToPredictResponse projects the result onto the /predict body.
func (r PredictionResult) ToPredictResponse() PredictResponse {
	return PredictResponse{Prediction: r.Summary}
}
