package templating

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitsuhiko/minijinja/minijinja-go/v2/value"
)

var nonWordRun = regexp.MustCompile(`([^\w]+)`)

// breakWords adds zero-width spaces around every run of non-word
// characters so long unbroken tokens (reference numbers, URLs) can wrap.
// The result is pre-escaped safe markup; the input is assumed to contain
// no whitespace and nothing needing escaping.
//
// For example, "hello/goodbye" becomes "hello&#8203;/&#8203;goodbye".
func breakWords(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("break_words takes exactly 1 argument, got %d", len(args))
	}
	word := args[0].String()
	return value.FromSafeString(nonWordRun.ReplaceAllString(word, "&#8203;${1}&#8203;")), nil
}

// pluralize returns a plural suffix when its argument is not exactly one.
// The argument may be a number, a numeric string, or a sequence (its
// length is used). An optional second argument customizes the suffixes:
// "es" for a bare plural suffix, or "y,ies" for a singular,plural pair.
// Unusable input yields an empty string rather than an error.
func pluralize(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return value.Undefined(), fmt.Errorf("pluralize takes 1 or 2 arguments, got %d", len(args))
	}

	singular, plural := "", "s"
	if len(args) == 2 {
		suffixes, ok := args[1].AsString()
		if !ok {
			return value.FromString(""), nil
		}
		parts := strings.Split(suffixes, ",")
		switch len(parts) {
		case 1:
			plural = parts[0]
		case 2:
			singular, plural = parts[0], parts[1]
		default:
			return value.FromString(""), nil
		}
	}

	n, ok := countOf(args[0])
	if !ok {
		return value.FromString(""), nil
	}
	if n == 1 {
		return value.FromString(singular), nil
	}
	return value.FromString(plural), nil
}

// countOf extracts a count from a number, numeric string, or sequence.
func countOf(v value.Value) (int64, bool) {
	if n, ok := v.AsInt(); ok {
		return n, true
	}
	if s, ok := v.AsString(); ok {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	if items, ok := v.AsSlice(); ok {
		return int64(len(items)), true
	}
	return 0, false
}
