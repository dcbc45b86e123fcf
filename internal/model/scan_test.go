package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/cellscan-cli/internal/batterycode"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, ScanStatusValid, StatusOf(true))
	assert.Equal(t, ScanStatusInvalid, StatusOf(false))
}

func TestNewScanRecord(t *testing.T) {
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name      string
		code      string
		status    ScanStatus
		kind      batterycode.CodeKind
		symbology string
		hasFields bool
	}{
		{"structured", "ABCCB01234567JA118901234", ScanStatusValid, batterycode.KindStructured, "QR", true},
		{"fallback", "XYZQ1A1HELLO", ScanStatusInvalid, batterycode.KindFallback, "DataMatrix", true},
		{"undecodable", "short", ScanStatusInvalid, batterycode.KindUndecodable, "DataMatrix", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewScanRecord(batterycode.DecodeBatteryCode(tt.code), "cli", at)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.status, rec.Status)
			assert.Equal(t, tt.kind, rec.Kind)
			assert.Equal(t, tt.symbology, rec.Symbology)
			assert.Equal(t, tt.hasFields, rec.Fields != nil)
			assert.Equal(t, "cli", rec.Source)
			assert.Equal(t, time.UTC, rec.ScannedAt.Location())
			assert.True(t, at.Equal(rec.ScannedAt))
			assert.Empty(t, rec.ID)
			assert.Equal(t, tt.status == ScanStatusValid, rec.Valid())
		})
	}
}
