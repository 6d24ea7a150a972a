package model

import (
	"fmt"

	"github.com/bibbank/bib/services/review-service/internal/domain/valueobject"
)

const (
	MinRating = 1
	MaxRating = 5

	// verifiedPurchaseYes is the only value that marks a verified purchase.
	verifiedPurchaseYes = "Yes"
)

// Review is the per-request entity being scored. It is never persisted.
type Review struct {
	productTitle     string
	reviewTitle      string
	reviewText       string
	category         valueobject.Category
	rating           int
	verifiedPurchase bool
}

// NewReview validates the raw fields and builds a Review.
// Empty text fields are accepted; the pipeline handles them.
func NewReview(
	productTitle string,
	reviewTitle string,
	reviewText string,
	rating int,
	verifiedPurchase string,
	productCategory string,
) (*Review, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, NewValidationError("rating",
			fmt.Sprintf("must be between %d and %d, got %d", MinRating, MaxRating, rating))
	}

	category, err := valueobject.CategoryFromString(productCategory)
	if err != nil {
		return nil, NewValidationError("product_category", err.Error())
	}

	return &Review{
		productTitle:     productTitle,
		reviewTitle:      reviewTitle,
		reviewText:       reviewText,
		rating:           rating,
		verifiedPurchase: verifiedPurchase == verifiedPurchaseYes,
		category:         category,
	}, nil
}

// --- Accessors ---

func (r *Review) ProductTitle() string                  { return r.productTitle }
func (r *Review) ReviewTitle() string                   { return r.reviewTitle }
func (r *Review) ReviewText() string                    { return r.reviewText }
func (r *Review) Rating() int                           { return r.rating }
func (r *Review) VerifiedPurchase() bool                { return r.verifiedPurchase }
func (r *Review) ProductCategory() valueobject.Category { return r.category }
