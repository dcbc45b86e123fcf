package batterycode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBatteryCode(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		r := DecodeBatteryCode(fullCode)
		assert.True(t, r.Valid)
		assert.Equal(t, KindStructured, r.Kind)
		assert.True(t, r.Decoded())
		assert.Equal(t, "QR", r.Symbology())
		assert.Equal(t, "Battery Cell", r.Fields.Value(FieldProductType))
	})

	t.Run("fallback is reported invalid", func(t *testing.T) {
		r := DecodeBatteryCode("XYZQ1A1HELLO")
		assert.False(t, r.Valid)
		assert.Equal(t, KindFallback, r.Kind)
		assert.True(t, r.Decoded())
		assert.Equal(t, "DataMatrix", r.Symbology())
		assert.Equal(t, "HELLO", r.Fields.Value(FieldAdditionalInfo))
	})

	t.Run("structured discriminator at wrong length falls back", func(t *testing.T) {
		r := DecodeBatteryCode(fullCode + "Z")
		assert.False(t, r.Valid)
		assert.Equal(t, KindFallback, r.Kind)
		assert.Equal(t, Unknown, r.Fields.Value(FieldCellSerialNumber))
	})

	t.Run("undecodable", func(t *testing.T) {
		r := DecodeBatteryCode("short")
		assert.False(t, r.Valid)
		assert.Equal(t, KindUndecodable, r.Kind)
		assert.False(t, r.Decoded())
		assert.Nil(t, r.Fields)
	})
}

func TestDecoder_ExtendedLengthsDecodeStructured(t *testing.T) {
	d := NewDecoder(WithValidLengths(ExtendedValidLengths...))
	r := d.DecodeBatteryCode(fullCode + "Z")
	assert.True(t, r.Valid)
	assert.Equal(t, KindStructured, r.Kind)
	assert.Equal(t, "Z", r.Fields.Value(FieldAdditionalInfo))
	assert.Equal(t, "DataMatrix", r.Symbology())
}

func TestDecodeBatteryCode_Deterministic(t *testing.T) {
	for _, code := range []string{fullCode, "XYZQ1A1HELLO", "", "short"} {
		assert.Equal(t, DecodeBatteryCode(code), DecodeBatteryCode(code), code)
	}
}

func TestResult_JSONKeepsFieldOrder(t *testing.T) {
	r := DecodeBatteryCode(fullCode)
	data, err := json.Marshal(r)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"code": "ABCCB01234567JA118901234",
		"valid": true,
		"kind": "structured",
		"fields": {
			"Vendor Code": "ABC",
			"Product Type": "Battery Cell",
			"Cell Chemistry": "LiFePO4",
			"Specification Code": "01",
			"Traceability Code": "234567",
			"Factory Location": "Jingmen",
			"Production Date": "2020-1-1",
			"Cell Serial Number": "8901234"
		}
	}`, string(data))
	assert.Contains(t, string(data), `{"Vendor Code":"ABC","Product Type":"Battery Cell"`)

	var back Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}

func TestLookupURL(t *testing.T) {
	assert.Equal(t,
		"https://www.gobelpower.com/lifepo4_decoder.html?code=ABCCB01234567JA118901234",
		LookupURL(fullCode))
	assert.Equal(t,
		"https://www.gobelpower.com/lifepo4_decoder.html?code=A+B%26C",
		LookupURL("A B&C"))
}

func TestEnumLabels(t *testing.T) {
	assert.Equal(t, ProductModule, ParseProductType('m'))
	assert.Equal(t, "module", ProductModule.String())
	assert.False(t, ProductUnknown.IsStructured())
	assert.Equal(t, ChemistryLiFePO4, ParseCellChemistry('b'))
	assert.Equal(t, "Unknown", ChemistryUnknown.Label())
	assert.Equal(t, FactoryHuizhou, ParseFactoryLocation('H'))
	assert.Equal(t, "jingmen", FactoryJingmen.String())
}
