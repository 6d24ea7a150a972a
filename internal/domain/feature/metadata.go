package feature

import "github.com/bibbank/bib/services/review-service/internal/domain/valueobject"

// MetadataLen is rating, verified flag and the category one-hot.
const MetadataLen = 2 + valueobject.CategoryCount

// EncodeMetadata returns [rating, verified, one-hot(category)...].
func EncodeMetadata(rating int, verified bool, category valueobject.Category) []float64 {
	out := make([]float64, 0, MetadataLen)
	out = append(out, float64(rating))
	if verified {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	return append(out, category.OneHot()...)
}
