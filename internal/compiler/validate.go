package compiler

import (
	"fmt"

	"github.com/roach88/sequence/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrScheduleNameEmpty = "E101" // schedule name is required
	ErrInvalidPrecision  = "E102" // precision must be positive
	ErrUnknownItemKind   = "E103" // kind is not group, action or external
	ErrUnknownAnchor     = "E104" // anchor name not recognized
	ErrNegativeDuration  = "E105" // duration below zero
	ErrItemNameEmpty     = "E106" // actions and externals need a name
	ErrChildrenOnLeaf    = "E107" // only groups may have items
	ErrGroupDuration     = "E108" // group duration comes from its children
)

// ValidationError represents a schedule spec validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a schedule spec and returns all errors found
// (does not fail fast). Specs loaded from YAML are checked here; CUE specs
// are checked item by item while parsing.
func Validate(spec *ir.ScheduleSpec) []ValidationError {
	var errs []ValidationError
	if spec.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "schedule name is required", Code: ErrScheduleNameEmpty})
	}
	if spec.Precision != 0 && !ir.ValidPrecision(spec.Precision) {
		errs = append(errs, ValidationError{Field: "precision", Message: "precision must be positive", Code: ErrInvalidPrecision})
	}
	errs = append(errs, validateItems(spec.Items, "items")...)
	return errs
}

func validateItems(items []ir.ItemSpec, field string) []ValidationError {
	var errs []ValidationError
	for i, item := range items {
		f := fmt.Sprintf("%s[%d]", field, i)
		if err := validateItem(item, f); err != nil {
			errs = append(errs, *err)
		}
		if item.Kind == ir.ItemGroup {
			errs = append(errs, validateItems(item.Items, f+".items")...)
		}
	}
	return errs
}

// validateItem checks one item without descending into its children.
func validateItem(item ir.ItemSpec, field string) *ValidationError {
	if _, err := ir.ParseRelativeStart(item.Anchor); err != nil {
		return &ValidationError{Field: field + ".anchor", Message: err.Error(), Code: ErrUnknownAnchor}
	}
	if item.Duration < 0 {
		return &ValidationError{Field: field + ".duration", Message: "duration must not be negative", Code: ErrNegativeDuration}
	}

	switch item.Kind {
	case ir.ItemGroup:
		if item.Duration != 0 {
			return &ValidationError{Field: field + ".duration", Message: "group duration is derived from its items", Code: ErrGroupDuration}
		}
	case ir.ItemAction, ir.ItemExternal:
		if item.Name == "" {
			return &ValidationError{Field: field + ".name", Message: item.Kind + " name is required", Code: ErrItemNameEmpty}
		}
		if len(item.Items) > 0 {
			return &ValidationError{Field: field + ".items", Message: "only groups may contain items", Code: ErrChildrenOnLeaf}
		}
	default:
		return &ValidationError{Field: field + ".kind", Message: fmt.Sprintf("unknown kind %q", item.Kind), Code: ErrUnknownItemKind}
	}
	return nil
}
