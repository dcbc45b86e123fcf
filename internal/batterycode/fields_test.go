package batterycode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldsMap(t *testing.T) {
	f := Fields{
		{Name: FieldVendorCode, Value: "ABC"},
		{Name: FieldProductType, Value: "Battery Cell"},
	}
	assert.Equal(t, map[string]string{
		FieldVendorCode:  "ABC",
		FieldProductType: "Battery Cell",
	}, f.Map())

	var empty Fields
	assert.Empty(t, empty.Map())
}
