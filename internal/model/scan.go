package model

import (
	"time"

	"github.com/sells-group/cellscan-cli/internal/batterycode"
)

// ScanStatus is the verdict recorded for a scan. VALID means the code
// followed the structured format.
type ScanStatus string

const (
	ScanStatusValid   ScanStatus = "VALID"
	ScanStatusInvalid ScanStatus = "INVALID"
)

// StatusOf returns the verdict for a decode result.
func StatusOf(valid bool) ScanStatus {
	if valid {
		return ScanStatusValid
	}
	return ScanStatusInvalid
}

// ScanRecord is one persisted scan.
type ScanRecord struct {
	ID        string               `json:"id"`
	Code      string               `json:"code"`
	Status    ScanStatus           `json:"status"`
	Kind      batterycode.CodeKind `json:"kind"`
	Symbology string               `json:"symbology"`
	Fields    batterycode.Fields   `json:"fields,omitempty"`
	Source    string               `json:"source,omitempty"` // cli, api, batch
	ScannedAt time.Time            `json:"scanned_at"`
}

// NewScanRecord builds an unsaved record from a decode result.
func NewScanRecord(r batterycode.Result, source string, at time.Time) ScanRecord {
	return ScanRecord{
		Code:      r.Code,
		Status:    StatusOf(r.Valid),
		Kind:      r.Kind,
		Symbology: r.Symbology(),
		Fields:    r.Fields,
		Source:    source,
		ScannedAt: at.UTC(),
	}
}

// Valid reports whether the scan was a structured code.
func (s ScanRecord) Valid() bool {
	return s.Status == ScanStatusValid
}
