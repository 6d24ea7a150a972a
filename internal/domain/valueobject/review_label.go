package valueobject

// ReviewLabel is an immutable value object for the discrete verdict on a review.
type ReviewLabel struct {
	value string
}

var (
	LabelFake = ReviewLabel{value: "fake"}
	LabelReal = ReviewLabel{value: "real"}
)

// String returns the string representation.
func (l ReviewLabel) String() string {
	return l.value
}

// IsZero returns true if the label has not been set.
func (l ReviewLabel) IsZero() bool {
	return l.value == ""
}

// Equal checks equality with another ReviewLabel.
func (l ReviewLabel) Equal(other ReviewLabel) bool {
	return l.value == other.value
}
