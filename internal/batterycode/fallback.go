package batterycode

// Fallback layout for short or irregular (DataMatrix) codes.
const (
	fbVendorEnd       = 3
	fbTypeEnd         = 4
	fbDateEnd         = 7
	fallbackLayoutLen = fbDateEnd
)

// fallbackUnknown are the structured fields the fallback layout does not carry.
var fallbackUnknown = []string{
	FieldCellChemistry,
	FieldSpecificationCode,
	FieldTraceabilityCode,
	FieldFactoryLocation,
	FieldCellSerialNumber,
}

// DecodeFallback reads vendor, product type and date from the head of code
// and returns the rest as Additional Info. It reports false for codes
// shorter than DefaultFallbackMinLength.
func DecodeFallback(code string) (Fields, bool) {
	return defaultDecoder.DecodeFallback(code)
}

// DecodeFallback is DecodeFallback with the decoder's length floor.
func (d *Decoder) DecodeFallback(code string) (Fields, bool) {
	if len(code) < d.fallbackMinLength {
		return nil, false
	}
	vendor, ok := slice(code, 0, fbVendorEnd)
	if !ok {
		return nil, false
	}
	productType, ok := slice(code, fbVendorEnd, fbTypeEnd)
	if !ok {
		return nil, false
	}
	dateCode, ok := slice(code, fbTypeEnd, fbDateEnd)
	if !ok {
		return nil, false
	}

	fields := make(Fields, 0, len(FieldNames))
	fields.add(FieldVendorCode, vendor)
	fields.add(FieldProductType, ParseProductType(productType[0]).Label())
	fields.add(FieldProductionDate, DecodeDate(dateCode))
	if len(code) > fbDateEnd {
		fields.add(FieldAdditionalInfo, code[fbDateEnd:])
	}
	for _, name := range fallbackUnknown {
		fields.add(name, Unknown)
	}
	return fields, true
}

// slice returns s[start:end] when the range is inside s.
func slice(s string, start, end int) (string, bool) {
	if start < 0 || end > len(s) || start > end {
		return "", false
	}
	return s[start:end], true
}
