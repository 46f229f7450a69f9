package template

import (
	"strconv"
	"strings"
)

// Operator compares a recorded answer with a filter's value
type Operator string

const (
	OpEqual    Operator = "="
	OpNotEqual Operator = "≠"
	OpGreater  Operator = ">"
	OpLess     Operator = "<"
)

// ParseOperator accepts the editor's symbols plus their ASCII spellings
func ParseOperator(s string) (Operator, bool) {
	switch strings.TrimSpace(s) {
	case "=", "==":
		return OpEqual, true
	case "≠", "!=", "<>":
		return OpNotEqual, true
	case ">":
		return OpGreater, true
	case "<":
		return OpLess, true
	}
	return "", false
}

// Apply evaluates "answer <op> value". Both sides are compared as numbers when
// they both parse as one, otherwise as trimmed, case-insensitive strings.
func (o Operator) Apply(answer, value string) bool {
	cmp := compare(answer, value)
	switch o {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	}
	return false
}

func compare(a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	fa, errA := strconv.ParseFloat(strings.Replace(a, ",", ".", 1), 64)
	fb, errB := strconv.ParseFloat(strings.Replace(b, ",", ".", 1), 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// MatchLabel reports whether a connection label selects the given answer
func MatchLabel(label, answer string) bool {
	label = strings.TrimSpace(label)
	return label != "" && strings.EqualFold(label, strings.TrimSpace(answer))
}

// BoolLabel reads a connection label as a filter outcome. ok is false for
// labels that are not a yes/no word.
func BoolLabel(label string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "ja", "yes", "true", "waar", "1", "y":
		return true, true
	case "nee", "no", "false", "onwaar", "0", "n":
		return false, true
	}
	return false, false
}
