package planvalidate

import "fmt"

// PlanError is the plan-validation error family, surfaced to callers
// unchanged (spec §4.F, §7).
type PlanError struct {
	Kind  string
	Field string
	Index string
	Msg   string
}

func (e *PlanError) Error() string {
	switch {
	case e.Index != "":
		return fmt.Sprintf("plan: %s (index %q): %s", e.Kind, e.Index, e.Msg)
	case e.Field != "":
		return fmt.Sprintf("plan: %s (field %q): %s", e.Kind, e.Field, e.Msg)
	default:
		return fmt.Sprintf("plan: %s: %s", e.Kind, e.Msg)
	}
}

func planErr(kind, msg string) error                { return &PlanError{Kind: kind, Msg: msg} }
func fieldErr(kind, field, msg string) error         { return &PlanError{Kind: kind, Field: field, Msg: msg} }
func indexErr(kind, index, msg string) error         { return &PlanError{Kind: kind, Index: index, Msg: msg} }
