package query

import "strconv"

// Coerce maps a raw text token to a typed literal: the exact strings "true"
// and "false" become booleans, a token that parses in full as a number
// becomes a float64, everything else (including the empty string) passes
// through unchanged. Callers that cannot accept empty input must reject it
// before calling.
func Coerce(token string) any {
	switch token {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(token, 64); err == nil {
		return n
	}
	return token
}
