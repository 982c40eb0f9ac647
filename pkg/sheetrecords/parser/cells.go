package parser

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the type carried by a Value.
type Kind int

const (
	KindEmpty Kind = iota
	KindInt
	KindFloat
	KindBool
	KindText
)

// Value is a typed view of a cell's text.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Text  string
}

// Interface returns the Go value for JSON encoding: nil, int64, float64, bool or string.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindEmpty:
		return nil
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	default:
		return v.Text
	}
}

// ParseValue attempts to parse a cell's text as a number or boolean.
// Booleans are recognized only in the TRUE/FALSE spelling excelize uses.
func ParseValue(s string) Value {
	if s == "" {
		return Value{Kind: KindEmpty}
	}
	// Try integer first
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Value{Kind: KindInt, Int: i, Text: s}
	}
	// Try float
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Value{Kind: KindFloat, Float: f, Text: s}
	}
	switch strings.ToUpper(s) {
	case "TRUE":
		return Value{Kind: KindBool, Bool: true, Text: s}
	case "FALSE":
		return Value{Kind: KindBool, Bool: false, Text: s}
	}
	return Value{Kind: KindText, Text: s}
}

// TypedData converts a record's string map into typed values.
func TypedData(data map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = ParseValue(v).Interface()
	}
	return out
}
