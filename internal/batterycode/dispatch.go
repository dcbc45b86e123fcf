package batterycode

import "net/url"

// Result is the outcome of DecodeBatteryCode.
type Result struct {
	Code   string   `json:"code" yaml:"code"`
	Valid  bool     `json:"valid" yaml:"valid"`
	Kind   CodeKind `json:"kind" yaml:"kind"`
	Fields Fields   `json:"fields" yaml:"fields"`
}

// Decoded reports whether any fields were produced.
func (r Result) Decoded() bool {
	return r.Fields != nil
}

// Symbology guesses the printed symbology: full-length codes come from QR
// labels, everything else from DataMatrix.
func (r Result) Symbology() string {
	if len(r.Code) == LengthFull {
		return "QR"
	}
	return "DataMatrix"
}

// DecodeBatteryCode validates raw and decodes it with the structured layout,
// falling back to the best-effort layout when validation fails. Valid is
// true only for structured codes.
func DecodeBatteryCode(raw string) Result {
	return defaultDecoder.DecodeBatteryCode(raw)
}

// DecodeBatteryCode is DecodeBatteryCode with the decoder's settings.
func (d *Decoder) DecodeBatteryCode(raw string) Result {
	if d.validator.Validate(raw) {
		if fields, err := Decode(raw); err == nil {
			return Result{Code: raw, Valid: true, Kind: KindStructured, Fields: fields}
		}
	}
	if fields, ok := d.DecodeFallback(raw); ok {
		return Result{Code: raw, Kind: KindFallback, Fields: fields}
	}
	return Result{Code: raw, Kind: KindUndecodable}
}

const lookupBaseURL = "https://www.gobelpower.com/lifepo4_decoder.html"

// LookupURL links to the manufacturer's web decoder for code.
func LookupURL(code string) string {
	return lookupBaseURL + "?" + url.Values{"code": {code}}.Encode()
}
