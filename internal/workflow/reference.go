package workflow

import "fmt"

// ReferencePrefix is the shared namespace of HSE references. All permit
// categories draw from the same per-year sequence, so numbering stays
// dense across general, height, electrical and prevention-plan records.
const ReferencePrefix = "PTW"

// ReferenceScope returns the sequence scope for a year, e.g. "ref/2025".
func ReferenceScope(year int) string {
	return fmt.Sprintf("ref/%d", year)
}

// FormatReference renders a reference as YYYY/PTW/NNN, e.g. "2025/PTW/001".
// Past 999 the sequence field widens instead of wrapping.
func FormatReference(year int, seq int64) string {
	return fmt.Sprintf("%04d/%s/%03d", year, ReferencePrefix, seq)
}
