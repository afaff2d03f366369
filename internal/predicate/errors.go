package predicate

import "fmt"

// ValidationError is the predicate-validation error family surfaced
// unchanged to callers (spec §7 "Plan-time validation failures →
// PlanError variants ... surfaced to the caller unchanged").
type ValidationError struct {
	Kind  string
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("predicate: %s (field %q): %s", e.Kind, e.Field, e.Msg)
	}
	return fmt.Sprintf("predicate: %s: %s", e.Kind, e.Msg)
}

func unknownField(field string) error {
	return &ValidationError{Kind: "UnknownField", Field: field}
}

func nonQueryableFieldType(field string) error {
	return &ValidationError{Kind: "NonQueryableFieldType", Field: field}
}

func invalidOperator(field, msg string) error {
	return &ValidationError{Kind: "InvalidOperator", Field: field, Msg: msg}
}

func invalidLiteral(field, msg string) error {
	return &ValidationError{Kind: "InvalidLiteral", Field: field, Msg: msg}
}
