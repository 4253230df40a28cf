package processor

import (
	"math"
	"strconv"
	"strings"
)

type cellKind int

const (
	cellNull cellKind = iota
	cellString
	cellInt
	cellFloat
	cellList
)

// cell is one typed table value.
type cell struct {
	kind cellKind
	s    string
	i    int64
	f    float64
	list []string
}

func stringCell(s string) cell    { return cell{kind: cellString, s: s} }
func intCell(i int64) cell        { return cell{kind: cellInt, i: i} }
func floatCell(f float64) cell    { return cell{kind: cellFloat, f: f} }
func listCell(list []string) cell { return cell{kind: cellList, list: list} }

// text renders the cell for document content. Nulls render empty.
func (c cell) text() string {
	switch c.kind {
	case cellString:
		return c.s
	case cellInt:
		return strconv.FormatInt(c.i, 10)
	case cellFloat:
		return formatFloat(c.f)
	case cellList:
		return strings.Join(c.list, ", ")
	default:
		return ""
	}
}

// metadata returns the typed metadata value. Nulls are omitted.
func (c cell) metadata() (any, bool) {
	switch c.kind {
	case cellString:
		return c.s, true
	case cellInt:
		return c.i, true
	case cellFloat:
		return c.f, true
	case cellList:
		return c.list, true
	default:
		return nil, false
	}
}

// formatFloat renders f in its shortest round-trip form, always with a
// fractional part or exponent: 1 renders "1.0", 1e16 renders "1e+16".
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
