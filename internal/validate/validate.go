// Package validate normalizes untrusted request values before they reach the
// store. Every coercion is total over the JSON input classes: absent or null,
// boolean, number, string, and the non-scalar array and object classes, which
// are always rejected with ErrNonScalar.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// MaxTitleLength is measured in code points, not bytes.
const MaxTitleLength = 120

var (
	ErrNonScalar     = errors.New("value must be a scalar")
	ErrInvalidNumber = errors.New("value is not a valid integer")
)

type kind int

const (
	kindNull kind = iota
	kindBool
	kindNumber
	kindString
	kindNonScalar
)

func classify(raw json.RawMessage) kind {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return kindNull
	}
	switch trimmed[0] {
	case 'n':
		return kindNull
	case 't', 'f':
		return kindBool
	case '"':
		return kindString
	case '[', '{':
		return kindNonScalar
	default:
		return kindNumber
	}
}

// SanitizeTitle trims surrounding whitespace and truncates to MaxTitleLength
// code points. Whitespace exposed by the cut is trimmed too, so applying it
// twice gives the same result as applying it once. The cost is that a cut
// landing next to whitespace yields fewer than MaxTitleLength code points.
func SanitizeTitle(raw string) string {
	s := strings.TrimSpace(raw)
	n := 0
	for i := range s {
		if n == MaxTitleLength {
			return strings.TrimRightFunc(s[:i], unicode.IsSpace)
		}
		n++
	}
	return s
}

// CoerceTitle converts a raw JSON value to text and sanitizes it.
func CoerceTitle(raw json.RawMessage) (string, error) {
	s, err := CoerceString(raw)
	if err != nil {
		return "", err
	}
	return SanitizeTitle(s), nil
}

// CoerceString maps null to "", booleans to "1" or "", numbers to their
// literal text and strings to themselves.
func CoerceString(raw json.RawMessage) (string, error) {
	switch classify(raw) {
	case kindNull:
		return "", nil
	case kindBool:
		if string(bytes.TrimSpace(raw)) == "true" {
			return "1", nil
		}
		return "", nil
	case kindNumber:
		return string(bytes.TrimSpace(raw)), nil
	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode string failed: %w", err)
		}
		return s, nil
	default:
		return "", ErrNonScalar
	}
}

// CoerceID returns the integer part of a number or numeric string, saturated
// to the int64 range. Null, booleans and unparsable strings give 0, which
// callers treat as invalid.
func CoerceID(raw json.RawMessage) (int64, error) {
	v, ok, err := coerceInteger(raw)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return v, nil
}

// CoerceInt is the lenient form used for paging parameters: anything that is
// not a number or numeric string yields fallback.
func CoerceInt(raw json.RawMessage, fallback int) int {
	v, ok, err := coerceInteger(raw)
	if err != nil || !ok {
		return fallback
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int(v)
}

// CoerceBool treats null, false, numeric zero and the strings "", "0",
// "false", "off" and "no" (any case) as false. Every other scalar is true.
func CoerceBool(raw json.RawMessage) (bool, error) {
	switch classify(raw) {
	case kindNull:
		return false, nil
	case kindBool:
		return string(bytes.TrimSpace(raw)) == "true", nil
	case kindNumber:
		f, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
		if err != nil {
			return false, ErrInvalidNumber
		}
		return f != 0, nil
	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false, fmt.Errorf("decode string failed: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "0", "false", "off", "no":
			return false, nil
		}
		return true, nil
	default:
		return false, ErrNonScalar
	}
}

func coerceInteger(raw json.RawMessage) (int64, bool, error) {
	var text string
	switch classify(raw) {
	case kindNull, kindBool:
		return 0, false, nil
	case kindNumber:
		text = string(bytes.TrimSpace(raw))
	case kindString:
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false, fmt.Errorf("decode string failed: %w", err)
		}
		text = strings.TrimSpace(text)
	default:
		return 0, false, ErrNonScalar
	}

	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v, true, nil
	}
	// Magnitudes beyond float64 come back as ±Inf with ErrRange; a literal
	// "inf" or "nan" parses cleanly and is not a number here.
	f, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false, ErrInvalidNumber
	}
	if math.IsNaN(f) || (err == nil && math.IsInf(f, 0)) {
		return 0, false, ErrInvalidNumber
	}
	f = math.Trunc(f)
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64, true, nil
	case f <= math.MinInt64:
		return math.MinInt64, true, nil
	}
	return int64(f), true, nil
}
