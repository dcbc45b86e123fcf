package batterycode

import (
	"bytes"
	"encoding/json"
)

// Field names are consumed verbatim by scan logs, exports and the API.
const (
	FieldVendorCode        = "Vendor Code"
	FieldProductType       = "Product Type"
	FieldCellChemistry     = "Cell Chemistry"
	FieldSpecificationCode = "Specification Code"
	FieldTraceabilityCode  = "Traceability Code"
	FieldFactoryLocation   = "Factory Location"
	FieldProductionDate    = "Production Date"
	FieldCellSerialNumber  = "Cell Serial Number"
	FieldAdditionalInfo    = "Additional Info"
)

// Unknown is the display value for discriminators outside their table and
// for fields the fallback decoder cannot derive.
const Unknown = "Unknown"

// FieldNames lists every field in structured layout order.
var FieldNames = []string{
	FieldVendorCode,
	FieldProductType,
	FieldCellChemistry,
	FieldSpecificationCode,
	FieldTraceabilityCode,
	FieldFactoryLocation,
	FieldProductionDate,
	FieldCellSerialNumber,
	FieldAdditionalInfo,
}

// Field is one decoded name/value pair.
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Fields is an ordered mapping of decoded field names to display values.
type Fields []Field

// Get returns the value for name and whether it is present.
func (f Fields) Get(name string) (string, bool) {
	for _, fld := range f {
		if fld.Name == name {
			return fld.Value, true
		}
	}
	return "", false
}

// Value returns the value for name, or "" when absent.
func (f Fields) Value(name string) string {
	v, _ := f.Get(name)
	return v
}

// Has reports whether name is present.
func (f Fields) Has(name string) bool {
	_, ok := f.Get(name)
	return ok
}

// Names returns the field names in order.
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, fld := range f {
		names[i] = fld.Name
	}
	return names
}

// Map returns an unordered copy of the fields.
func (f Fields) Map() map[string]string {
	m := make(map[string]string, len(f))
	for _, fld := range f {
		m[fld.Name] = fld.Value
	}
	return m
}

// MarshalJSON renders the fields as a JSON object, keeping order.
func (f Fields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fld := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(fld.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(fld.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object back into ordered fields.
func (f *Fields) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	var out Fields
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		out = append(out, Field{Name: name, Value: value})
	}
	*f = out
	return nil
}

func (f *Fields) add(name, value string) {
	*f = append(*f, Field{Name: name, Value: value})
}
