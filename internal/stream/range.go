package stream

import (
	"strconv"
	"strings"

	"chunkvault/internal/apperr"
)

// Range is an inclusive byte interval [Start, End].
type Range struct {
	Start int64
	End   int64
}

// Length is the number of bytes covered.
func (r Range) Length() int64 { return r.End - r.Start + 1 }

// ParseRange interprets a single "bytes=<start>-<end>" value against a file of
// size bytes. An empty start means 0 and an empty end means size-1; an end past
// the last byte is clamped. Anything unsatisfiable or malformed is
// KindRangeNotSatisfiable.
func ParseRange(header string, size int64) (Range, error) {
	const op = "stream.ParseRange"
	notSatisfiable := apperr.E(op, apperr.KindRangeNotSatisfiable, "requested range not satisfiable")

	value, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok {
		return Range{}, notSatisfiable
	}
	startStr, endStr, ok := strings.Cut(value, "-")
	if !ok {
		return Range{}, notSatisfiable
	}

	r := Range{Start: 0, End: size - 1}
	if s := strings.TrimSpace(startStr); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			return Range{}, notSatisfiable
		}
		r.Start = v
	}
	if e := strings.TrimSpace(endStr); e != "" {
		v, err := strconv.ParseInt(e, 10, 64)
		if err != nil || v < 0 {
			return Range{}, notSatisfiable
		}
		r.End = min(v, size-1)
	}

	if r.Start > r.End || r.Start >= size {
		return Range{}, notSatisfiable
	}
	return r, nil
}
