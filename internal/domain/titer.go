package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Titer is a non-treponemal titer expressed as its dilution denominator,
// so a reported "1:16" is Titer(16). Absence is represented by a nil *Titer,
// never by zero.
type Titer int

// MinTiter and MaxTiter bound the standard twofold dilution series.
const (
	MinTiter Titer = 1
	MaxTiter Titer = 1024
)

// DilutionSeries is the standard doubling series a titer must belong to.
var DilutionSeries = []Titer{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024}

// IsValid reports whether the titer is a member of the dilution series.
func (t Titer) IsValid() bool {
	return t >= MinTiter && t <= MaxTiter && t&(t-1) == 0
}

// String renders the titer in ratio form, e.g. "1:16".
func (t Titer) String() string {
	return fmt.Sprintf("1:%d", int(t))
}

// Ptr returns a pointer to a copy of t.
func (t Titer) Ptr() *Titer {
	return &t
}

// ParseTiter normalizes a titer given either as a bare number or as a "1:N"
// ratio string. Only the denominator is significant. Values that do not
// resolve to a member of the dilution series are rejected with ErrInvalidTiter.
func ParseTiter(v any) (Titer, error) {
	var n int64
	switch val := v.(type) {
	case Titer:
		n = int64(val)
	case int:
		n = int64(val)
	case int32:
		n = int64(val)
	case int64:
		n = val
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("%w: %v is not a whole dilution", ErrInvalidTiter, val)
		}
		n = int64(val)
	case json.Number:
		parsed, err := val.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTiter, val.String())
		}
		n = parsed
	case string:
		parsed, err := parseTiterString(val)
		if err != nil {
			return 0, err
		}
		n = parsed
	case nil:
		return 0, fmt.Errorf("%w: missing value", ErrInvalidTiter)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidTiter, v)
	}

	t := Titer(n)
	if int64(t) != n || !t.IsValid() {
		return 0, fmt.Errorf("%w: %d is not in the dilution series", ErrInvalidTiter, n)
	}
	return t, nil
}

func parseTiterString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidTiter)
	}

	denominator := s
	if numerator, rest, found := strings.Cut(s, ":"); found {
		if strings.TrimSpace(numerator) != "1" {
			return 0, fmt.Errorf("%w: %q is not a 1:N ratio", ErrInvalidTiter, s)
		}
		denominator = strings.TrimSpace(rest)
	}

	n, err := strconv.ParseInt(denominator, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTiter, s)
	}
	return n, nil
}

// NormalizeOptionalTiter converts a boundary value into an optional titer.
// nil and empty strings are absent; malformed values are absent and the parse
// error is returned so the caller can surface a warning.
func NormalizeOptionalTiter(v any) (*Titer, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseTiter(v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
