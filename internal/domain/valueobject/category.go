package valueobject

import "fmt"

// CategoryCount is the number of product categories the classifier was trained on.
const CategoryCount = 30

// categoryLabels is ordered by one-hot slot. The order is part of the model contract.
var categoryLabels = [CategoryCount]string{
	"Apparel",
	"Automotive",
	"Baby",
	"Beauty",
	"Books",
	"Camera",
	"Electronics",
	"Furniture",
	"Grocery",
	"Health & Personal Care",
	"Home",
	"Home Entertainment",
	"Home Improvement",
	"Jewelry",
	"Kitchen",
	"Lawn and Garden",
	"Luggage",
	"Musical Instruments",
	"Office Products",
	"Outdoors",
	"PC",
	"Pet Products",
	"Shoes",
	"Sports",
	"Tools",
	"Toys",
	"Video DVD",
	"Video Games",
	"Watches",
	"Wireless",
}

var categoryIndex = func() map[string]int {
	idx := make(map[string]int, CategoryCount)
	for i, label := range categoryLabels {
		idx[label] = i
	}
	return idx
}()

// Category is an immutable value object for a product category label.
type Category struct {
	label string
	index int
}

// CategoryFromString resolves a label against the closed category vocabulary.
// Matching is exact and case-sensitive.
func CategoryFromString(s string) (Category, error) {
	idx, ok := categoryIndex[s]
	if !ok {
		return Category{}, fmt.Errorf("unknown product category: %q", s)
	}
	return Category{label: s, index: idx}, nil
}

// CategoryLabels returns the labels in slot order.
func CategoryLabels() []string {
	out := make([]string, CategoryCount)
	copy(out, categoryLabels[:])
	return out
}

// String returns the label.
func (c Category) String() string {
	return c.label
}

// Index returns the one-hot slot of the category.
func (c Category) Index() int {
	return c.index
}

// IsZero returns true if the Category has not been set.
func (c Category) IsZero() bool {
	return c.label == ""
}

// OneHot returns a CategoryCount-length vector with a single 1 at the category slot.
func (c Category) OneHot() []float64 {
	vec := make([]float64, CategoryCount)
	vec[c.index] = 1
	return vec
}
