package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lox/skyline/internal/models"
)

const (
	metersSuffix = " m"
	feetSuffix   = " ft"

	// maxWhole caps any normalized count or height so rounding stays within int.
	maxWhole = math.MaxInt32
)

// parseDecimal parses plain decimal text. Hex floats, NaN and infinities are rejected.
func parseDecimal(s string) (float64, bool) {
	digits := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseHeight normalizes a height cell such as "1,234 ft" to a whole number.
// The unit suffix and thousands separators are removed before parsing and the
// result is rounded half to even. Empty, non-numeric and negative values are errors.
func ParseHeight(raw, suffix string) (int, error) {
	s := strings.ReplaceAll(raw, suffix, "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, strings.TrimSpace(suffix))
	if s == "" {
		return 0, ErrMissingValue
	}

	v, ok := parseDecimal(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative height %q", ErrInvalidValue, raw)
	}
	if v > maxWhole {
		return 0, fmt.Errorf("%w: height out of range %q", ErrInvalidValue, raw)
	}
	return models.Round(v), nil
}

// ParseFloors coerces anything that is not a non-negative decimal number in
// range to zero.
func ParseFloors(raw string) int {
	v, ok := parseDecimal(strings.TrimSpace(raw))
	if !ok || v < 0 || v > maxWhole {
		return 0
	}
	return models.Round(v)
}

// ParseCompletion returns nil when the cell holds no usable year.
func ParseCompletion(raw string) *int {
	v, ok := parseDecimal(strings.TrimSpace(raw))
	if !ok || math.Abs(v) > maxWhole {
		return nil
	}
	year := models.Round(v)
	return &year
}

func parseCoordinate(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrMissingValue
	}
	v, ok := parseDecimal(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
	return v, nil
}
