package batterycode

import "sort"

// Structured code lengths. 24 is the full code, 19 the recycled short form,
// 25 a DataMatrix variant some printers emit.
const (
	LengthRecycled   = 19
	LengthFull       = 24
	LengthDataMatrix = 25
)

// typeOffset is the zero-based index of the product type discriminator.
const typeOffset = 3

var (
	// DefaultValidLengths is the length set every revision of the format accepts.
	DefaultValidLengths = []int{LengthRecycled, LengthFull}
	// ExtendedValidLengths adds the 25-character DataMatrix variant.
	ExtendedValidLengths = []int{LengthRecycled, LengthFull, LengthDataMatrix}
)

// Validator decides whether a raw code follows the strict positional format.
// It is immutable after construction.
type Validator struct {
	lengths map[int]bool
}

// NewValidator returns a validator accepting the given lengths, or
// DefaultValidLengths when none are given. Non-positive lengths are ignored.
func NewValidator(lengths ...int) *Validator {
	if len(lengths) == 0 {
		lengths = DefaultValidLengths
	}
	set := make(map[int]bool, len(lengths))
	for _, n := range lengths {
		if n > 0 {
			set[n] = true
		}
	}
	return &Validator{lengths: set}
}

var defaultValidator = NewValidator()

// Validate reports whether code has an accepted length and a C, P or M
// product type discriminator at position 4.
func (v *Validator) Validate(code string) bool {
	if !v.lengths[len(code)] {
		return false
	}
	if len(code) <= typeOffset {
		return false
	}
	return ParseProductType(code[typeOffset]).IsStructured()
}

// Lengths returns the accepted lengths in ascending order.
func (v *Validator) Lengths() []int {
	out := make([]int, 0, len(v.lengths))
	for n := range v.lengths {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// IsValidStructuredCode validates raw against DefaultValidLengths.
func IsValidStructuredCode(raw string) bool {
	return defaultValidator.Validate(raw)
}
