package feature

import (
	"fmt"

	"github.com/bibbank/bib/services/review-service/internal/domain/model"
)

// Blocks are the per-source feature groups of one review.
type Blocks struct {
	ProductTitle []float64
	ReviewTitle  []float64
	ReviewText   []float64
	Lexical      []float64
	Metadata     []float64
}

func (b Blocks) get(block Block) []float64 {
	switch block {
	case BlockProductTitle:
		return b.ProductTitle
	case BlockReviewTitle:
		return b.ReviewTitle
	case BlockReviewText:
		return b.ReviewText
	case BlockLexical:
		return b.Lexical
	case BlockMetadata:
		return b.Metadata
	default:
		return nil
	}
}

// Assembler concatenates blocks in schema order.
type Assembler struct {
	schema *Schema
}

func NewAssembler(schema *Schema) *Assembler {
	return &Assembler{schema: schema}
}

// Assemble concatenates the blocks. Every block must have exactly the
// length the schema declares for it.
func (a *Assembler) Assemble(b Blocks) ([]float64, error) {
	out := make([]float64, 0, a.schema.Len())
	for _, block := range blockOrder {
		values := b.get(block)
		_, want := a.schema.Span(block)
		if len(values) != want {
			return nil, fmt.Errorf("%w: block %s has %d values, expected %d",
				model.ErrFeatureSchemaMismatch, block, len(values), want)
		}
		out = append(out, values...)
	}
	return out, nil
}
