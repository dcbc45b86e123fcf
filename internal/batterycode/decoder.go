// Package batterycode decodes battery identification codes printed on
// LiFePO4 cells, packs and modules.
//
// A structured code is sliced at fixed offsets:
//
//	pos 1-3   vendor code
//	pos 4     product type (C cell, P pack, M module)
//	pos 5     cell chemistry (B LiFePO4)
//	pos 6-7   specification code
//	pos 8-13  traceability code
//	pos 14    factory location (J Jingmen, H Huizhou)
//	pos 15-17 production date (see ParseDate)
//	pos 18-24 cell serial number
//	pos 25+   additional info
//
// Codes the validator rejects go through a best-effort fallback that only
// reads vendor, product type and date. All functions are pure and safe for
// concurrent use. Lengths and offsets count bytes; scanned payloads are ASCII.
package batterycode

import "github.com/rotisserie/eris"

// Structured layout, zero-based half-open ranges.
const (
	vendorEnd     = 3
	chemistryAt   = 4
	specStart     = 5
	specEnd       = 7
	traceEnd      = 13
	factoryAt     = 13
	dateStart     = 14
	dateEnd       = 17
	serialEnd     = 24
	minStructured = dateEnd
)

// DefaultFallbackMinLength is the shortest code the fallback decoder reads.
const DefaultFallbackMinLength = 10

// Decoder bundles a validator with the fallback length floor.
type Decoder struct {
	validator         *Validator
	fallbackMinLength int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithValidLengths sets the structured length set.
func WithValidLengths(lengths ...int) Option {
	return func(d *Decoder) {
		d.validator = NewValidator(lengths...)
	}
}

// WithFallbackMinLength sets the fallback floor. Values below the seven
// characters the fallback layout needs are raised to it.
func WithFallbackMinLength(n int) Option {
	return func(d *Decoder) {
		if n < fallbackLayoutLen {
			n = fallbackLayoutLen
		}
		d.fallbackMinLength = n
	}
}

// NewDecoder returns a Decoder with DefaultValidLengths and
// DefaultFallbackMinLength unless overridden.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		validator:         defaultValidator,
		fallbackMinLength: DefaultFallbackMinLength,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDecoder = NewDecoder()

// Validator returns the decoder's validator.
func (d *Decoder) Validator() *Validator {
	return d.validator
}

// Validate reports whether code follows the structured format.
func (d *Decoder) Validate(code string) bool {
	return d.validator.Validate(code)
}

// Decode decodes a code the decoder's validator accepts.
func (d *Decoder) Decode(code string) (Fields, error) {
	if !d.validator.Validate(code) {
		return nil, eris.Wrapf(ErrInvalidInput, "code %q is not a structured code", code)
	}
	return Decode(code)
}

// Decode slices code into the structured layout. It does not check the
// length set, only that every fixed field is present and the product type is
// C, P or M.
func Decode(code string) (Fields, error) {
	if len(code) < minStructured {
		return nil, eris.Wrapf(ErrInvalidInput, "code has %d characters, need at least %d", len(code), minStructured)
	}
	if !ParseProductType(code[typeOffset]).IsStructured() {
		return nil, eris.Wrapf(ErrInvalidInput, "product type %q is not C, P or M", code[typeOffset])
	}
	return decodeStructured(code), nil
}

// decodeStructured assumes len(code) >= minStructured.
func decodeStructured(code string) Fields {
	fields := make(Fields, 0, len(FieldNames))
	fields.add(FieldVendorCode, code[:vendorEnd])
	fields.add(FieldProductType, ParseProductType(code[typeOffset]).Label())
	fields.add(FieldCellChemistry, ParseCellChemistry(code[chemistryAt]).Label())
	fields.add(FieldSpecificationCode, code[specStart:specEnd])
	fields.add(FieldTraceabilityCode, code[specEnd:traceEnd])
	fields.add(FieldFactoryLocation, ParseFactoryLocation(code[factoryAt]).Label())
	fields.add(FieldProductionDate, DecodeDate(code[dateStart:dateEnd]))
	fields.add(FieldCellSerialNumber, code[dateEnd:min(len(code), serialEnd)])
	if len(code) > serialEnd {
		fields.add(FieldAdditionalInfo, code[serialEnd:])
	}
	return fields
}
