package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestValidatePermitID checks the path-id rules.
func TestValidatePermitID(t *testing.T) {
	assert.NoError(t, ValidatePermitID("9f3c2a1e-7b2d-4c1a-9e0f-1234567890ab"))
	assert.NoError(t, ValidatePermitID("permit_001"))

	assert.ErrorIs(t, ValidatePermitID(""), ErrEmptyID)
	assert.ErrorIs(t, ValidatePermitID("id with spaces"), ErrInvalidIDFormat)
	assert.ErrorIs(t, ValidatePermitID("id/../../etc"), ErrInvalidIDFormat)
	assert.ErrorIs(t, ValidatePermitID(strings.Repeat("a", 65)), ErrIDTooLong)
}

// TestValidateTitle checks the title rules.
func TestValidateTitle(t *testing.T) {
	assert.NoError(t, ValidateTitle("Maintenance pylône ANT-001"))

	assert.ErrorIs(t, ValidateTitle("   "), ErrEmptyName)
	assert.ErrorIs(t, ValidateTitle(strings.Repeat("a", 256)), ErrNameTooLong)
	assert.ErrorIs(t, ValidateTitle("<script>alert(1)</script>"), ErrDangerousChars)
	assert.ErrorIs(t, ValidateTitle("x'; DROP TABLE permits"), ErrDangerousChars)
}

// TestSanitizeString checks escaping and control stripping.
func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;", SanitizeString("<b>"))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
	assert.Equal(t, "ab", SanitizeString("a\x00b"))
}

// TestTrimAndValidate checks the combined helper.
func TestTrimAndValidate(t *testing.T) {
	out, err := TrimAndValidate("  hello  ", 10)
	assert.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = TrimAndValidate("   ", 10)
	assert.ErrorIs(t, err, ErrEmptyString)

	_, err = TrimAndValidate("toolongvalue", 5)
	assert.ErrorIs(t, err, ErrStringTooLong)
}
