package csvimport

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType is the expected type of a column
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
)

// DateLayouts are the accepted date and timestamp formats, tried in order
var DateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	time.RFC3339,
}

// FieldRule validates one column
type FieldRule struct {
	Column    string
	Required  bool
	Type      FieldType
	MaxLength int
	MinValue  *decimal.Decimal
	OneOf     []string
}

// FieldRuleBuilder builds a FieldRule fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a rule for column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

func (b *FieldRuleBuilder) Required() *FieldRuleBuilder { b.rule.Required = true; return b }
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder      { b.rule.Type = TypeInt; return b }
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder  { b.rule.Type = TypeDecimal; return b }
func (b *FieldRuleBuilder) Date() *FieldRuleBuilder     { b.rule.Type = TypeDate; return b }

// MaxLength limits the length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Min sets the lowest accepted numeric value
func (b *FieldRuleBuilder) Min(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &v
	return b
}

// OneOf restricts the value to a set, compared case-insensitively
func (b *FieldRuleBuilder) OneOf(values ...string) *FieldRuleBuilder {
	b.rule.OneOf = values
	return b
}

// Build returns the rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// ValidateRow checks row against rules, adding every problem to errs.
// It returns true when the row is clean.
func ValidateRow(row *Row, rules []FieldRule, errs *ErrorCollection) bool {
	ok := true
	for _, rule := range rules {
		value := row.Get(rule.Column)
		if value == "" {
			if rule.Required {
				errs.Add(RowError{Line: row.Line, Column: rule.Column, Code: ErrCodeRequired, Message: "value is required"})
				ok = false
			}
			continue
		}
		if err := checkValue(rule, value); err != nil {
			err.Line = row.Line
			errs.Add(*err)
			ok = false
		}
	}
	return ok
}

func checkValue(rule FieldRule, value string) *RowError {
	fail := func(code, msg string) *RowError {
		return &RowError{Column: rule.Column, Code: code, Message: msg, Value: value}
	}

	if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
		return fail(ErrCodeTooLong, fmt.Sprintf("must be at most %d characters", rule.MaxLength))
	}

	switch rule.Type {
	case TypeInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fail(ErrCodeInvalidType, "must be a whole number")
		}
		if rule.MinValue != nil && decimal.NewFromInt(n).LessThan(*rule.MinValue) {
			return fail(ErrCodeOutOfRange, "must be at least "+rule.MinValue.String())
		}
	case TypeDecimal:
		d, err := ParseDecimal(value)
		if err != nil {
			return fail(ErrCodeInvalidType, "must be a number")
		}
		if rule.MinValue != nil && d.LessThan(*rule.MinValue) {
			return fail(ErrCodeOutOfRange, "must be at least "+rule.MinValue.String())
		}
	case TypeDate:
		if _, err := ParseDate(value); err != nil {
			return fail(ErrCodeInvalidType, "must be a date such as 2024-03-15 or 15/03/2024")
		}
	}

	if len(rule.OneOf) > 0 {
		for _, allowed := range rule.OneOf {
			if strings.EqualFold(allowed, value) {
				return nil
			}
		}
		return fail(ErrCodeInvalidValue, "must be one of: "+strings.Join(rule.OneOf, ", "))
	}
	return nil
}

// ParseDecimal parses plain ("1234.56") and pt-BR ("R$ 1.234,56") amounts.
// When both separators appear the last one is the decimal mark; a lone comma
// is always decimal.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")

	lastComma, lastDot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	return decimal.NewFromString(s)
}

// ParseDate parses value with the first matching layout in DateLayouts.
// Dates without a zone are UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
