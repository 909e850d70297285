package schema

import (
	"fmt"
	"regexp"
	"strconv"
)

// Constraint defines a validation rule for a field, applied after the
// value has been decoded to its declared type.
type Constraint struct {
	// Type is the constraint type (min, max, min_length, max_length, pattern).
	Type ConstraintType

	// Value is the constraint parameter (number or regex pattern).
	Value any

	// Message is the custom error message (optional).
	Message string
}

// ConstraintType identifies the type of constraint.
type ConstraintType string

const (
	ConstraintMin       ConstraintType = "min"        // Minimum numeric value
	ConstraintMax       ConstraintType = "max"        // Maximum numeric value
	ConstraintMinLength ConstraintType = "min_length" // Minimum string length
	ConstraintMaxLength ConstraintType = "max_length" // Maximum string length
	ConstraintPattern   ConstraintType = "pattern"    // Regex pattern match
)

// Min is shorthand for a minimum-value constraint.
func Min(n float64) Constraint { return Constraint{Type: ConstraintMin, Value: n} }

// Max is shorthand for a maximum-value constraint.
func Max(n float64) Constraint { return Constraint{Type: ConstraintMax, Value: n} }

// Pattern is shorthand for a regex-match constraint.
func Pattern(expr string) Constraint { return Constraint{Type: ConstraintPattern, Value: expr} }

// checkConstraint validates a decoded value against a single constraint.
// Returns a reason string, or "" when the value passes. Constraints that
// do not apply to the value's type pass.
func checkConstraint(value any, c Constraint) string {
	switch c.Type {
	case ConstraintMin:
		return checkMin(value, c)
	case ConstraintMax:
		return checkMax(value, c)
	case ConstraintMinLength:
		return checkMinLength(value, c)
	case ConstraintMaxLength:
		return checkMaxLength(value, c)
	case ConstraintPattern:
		return checkPattern(value, c)
	default:
		return ""
	}
}

func checkMin(value any, c Constraint) string {
	min, err := toFloat64(c.Value)
	if err != nil {
		return ""
	}
	val, err := toFloat64(value)
	if err != nil {
		return ""
	}
	if val < min {
		if c.Message != "" {
			return c.Message
		}
		return fmt.Sprintf("must be at least %v", min)
	}
	return ""
}

func checkMax(value any, c Constraint) string {
	max, err := toFloat64(c.Value)
	if err != nil {
		return ""
	}
	val, err := toFloat64(value)
	if err != nil {
		return ""
	}
	if val > max {
		if c.Message != "" {
			return c.Message
		}
		return fmt.Sprintf("must be at most %v", max)
	}
	return ""
}

func checkMinLength(value any, c Constraint) string {
	minLen, err := toInt(c.Value)
	if err != nil {
		return ""
	}
	str, ok := value.(string)
	if !ok {
		return ""
	}
	if len(str) < minLen {
		if c.Message != "" {
			return c.Message
		}
		return fmt.Sprintf("must be at least %d characters", minLen)
	}
	return ""
}

func checkMaxLength(value any, c Constraint) string {
	maxLen, err := toInt(c.Value)
	if err != nil {
		return ""
	}
	str, ok := value.(string)
	if !ok {
		return ""
	}
	if len(str) > maxLen {
		if c.Message != "" {
			return c.Message
		}
		return fmt.Sprintf("must be at most %d characters", maxLen)
	}
	return ""
}

func checkPattern(value any, c Constraint) string {
	pattern, ok := c.Value.(string)
	if !ok {
		return ""
	}
	str, ok := value.(string)
	if !ok {
		return ""
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	if !re.MatchString(str) {
		if c.Message != "" {
			return c.Message
		}
		return "does not match required pattern"
	}
	return ""
}

// toFloat64 converts various numeric types to float64.
func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}

// toInt converts various types to int.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}
