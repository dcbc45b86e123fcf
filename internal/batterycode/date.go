package batterycode

import "strconv"

// InvalidDate is rendered when any character of a date code falls outside
// its alphabet.
const InvalidDate = "Invalid Date"

const (
	dateCodeLen = 3
	yearEpoch   = 2010
)

// ProductionDate is a decoded three-character date code. Month and day are
// range-limited by their alphabets only; no calendar check is made.
type ProductionDate struct {
	Year  int
	Month int
	Day   int
}

// String renders the date as Y-M-D without zero padding.
func (d ProductionDate) String() string {
	return strconv.Itoa(d.Year) + "-" + strconv.Itoa(d.Month) + "-" + strconv.Itoa(d.Day)
}

// ParseDate decodes a date code. Year is 0-9 then A-Z counted from 2010,
// month is 1-9 then A-C, day is 1-9 then A-V.
func ParseDate(code string) (ProductionDate, bool) {
	if len(code) != dateCodeLen {
		return ProductionDate{}, false
	}
	year, ok := radix36(code[0], '0', 'Z')
	if !ok {
		return ProductionDate{}, false
	}
	month, ok := radix36(code[1], '1', 'C')
	if !ok {
		return ProductionDate{}, false
	}
	day, ok := radix36(code[2], '1', 'V')
	if !ok {
		return ProductionDate{}, false
	}
	return ProductionDate{Year: yearEpoch + year, Month: month, Day: day}, true
}

// DecodeDate decodes a date code into its display form or InvalidDate.
func DecodeDate(code string) string {
	d, ok := ParseDate(code)
	if !ok {
		return InvalidDate
	}
	return d.String()
}

// radix36 reads c as a digit followed by upper-case letters (A=10), bounded
// below by the digit lo and above by the letter hi.
func radix36(c, lo, hi byte) (int, bool) {
	switch {
	case c >= lo && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= hi:
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}
