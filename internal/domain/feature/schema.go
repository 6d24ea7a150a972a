package feature

import (
	"fmt"

	"github.com/bibbank/bib/services/review-service/internal/domain/model"
	"github.com/bibbank/bib/services/review-service/internal/domain/valueobject"
)

// Block identifies a contiguous group of features in the assembled vector.
type Block string

const (
	BlockProductTitle Block = "product_title_emb"
	BlockReviewTitle  Block = "review_title_emb"
	BlockReviewText   Block = "review_text_emb"
	BlockLexical      Block = "lexical"
	BlockMetadata     Block = "metadata"
)

// blockOrder is the layout the scaler and classifier were fitted on.
var blockOrder = []Block{
	BlockProductTitle,
	BlockReviewTitle,
	BlockReviewText,
	BlockLexical,
	BlockMetadata,
}

type span struct {
	offset int
	length int
}

// Schema names every slot of the assembled feature vector, in order.
type Schema struct {
	names          []string
	spans          map[Block]span
	embeddingWidth int
}

// NewSchema builds the schema for the given embedding width:
// three embeddings, the lexical features, then the metadata vector.
func NewSchema(embeddingWidth int) (*Schema, error) {
	if embeddingWidth <= 0 {
		return nil, fmt.Errorf("embedding width must be positive, got %d", embeddingWidth)
	}

	s := &Schema{
		spans:          make(map[Block]span, len(blockOrder)),
		embeddingWidth: embeddingWidth,
	}

	for _, b := range blockOrder {
		names := blockNames(b, embeddingWidth)
		s.spans[b] = span{offset: len(s.names), length: len(names)}
		s.names = append(s.names, names...)
	}

	return s, nil
}

func blockNames(b Block, embeddingWidth int) []string {
	switch b {
	case BlockLexical:
		return LexicalFeatureNames()
	case BlockMetadata:
		return MetadataFeatureNames()
	default:
		names := make([]string, embeddingWidth)
		for i := range names {
			names[i] = fmt.Sprintf("%s_%d", b, i)
		}
		return names
	}
}

// MetadataFeatureNames returns the metadata slot names in order.
func MetadataFeatureNames() []string {
	names := make([]string, 0, MetadataLen)
	names = append(names, "rating", "verified_purchase")
	for _, label := range valueobject.CategoryLabels() {
		names = append(names, "category_"+label)
	}
	return names
}

// Len is the assembled vector length: 3*width + 12 + 32.
func (s *Schema) Len() int {
	return len(s.names)
}

// EmbeddingWidth returns the per-field embedding width.
func (s *Schema) EmbeddingWidth() int {
	return s.embeddingWidth
}

// Names returns a copy of the ordered feature names.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Span returns the offset and length of a block.
func (s *Schema) Span(b Block) (offset, length int) {
	sp := s.spans[b]
	return sp.offset, sp.length
}

// Verify checks externally declared feature names (for example the names a
// scaler was fitted with) against the schema, slot by slot.
func (s *Schema) Verify(names []string) error {
	if len(names) != len(s.names) {
		return fmt.Errorf("%w: got %d names, schema has %d",
			model.ErrFeatureSchemaMismatch, len(names), len(s.names))
	}
	for i, name := range names {
		if name != s.names[i] {
			return fmt.Errorf("%w: slot %d is %q, schema expects %q",
				model.ErrFeatureSchemaMismatch, i, name, s.names[i])
		}
	}
	return nil
}
