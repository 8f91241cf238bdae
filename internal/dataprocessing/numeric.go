package dataprocessing

import (
	"math"
	"strconv"
	"strings"
)

// missingTokens are the cell values read as missing, after trimming
// surrounding whitespace. The set follows pandas' default na_values.
var missingTokens = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true,
	"-1.#IND": true, "-1.#QNAN": true, "-NaN": true, "-nan": true,
	"1.#IND": true, "1.#QNAN": true, "<NA>": true, "N/A": true,
	"NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// IsMissing reports whether raw is a missing value marker
func IsMissing(raw string) bool {
	return missingTokens[strings.TrimSpace(raw)]
}

// ParseNumeric converts a cell to a finite float64. Spaces, no-break spaces
// and percent signs are removed. With decimal == 0 the decimal separator is
// inferred: the right-most of '.' and ',' wins when both appear, a single
// comma is a decimal comma, repeated separators are thousands separators.
func ParseNumeric(raw string, decimal rune) (float64, bool) {
	if IsMissing(raw) {
		return 0, false
	}
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '\u202f', '\u2007', '%':
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return 0, false
	}

	switch decimal {
	case '.':
		s = strings.ReplaceAll(s, ",", "")
	case ',':
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = normalizeSeparators(s)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// 1.234,5
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		// 1,234.5
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// ParseYear parses an integral year such as "2020" or "2020.0"
func ParseYear(raw string) (int, bool) {
	v, ok := ParseNumeric(raw, 0)
	if !ok || v != math.Trunc(v) || math.Abs(v) > 1e6 {
		return 0, false
	}
	return int(v), true
}
