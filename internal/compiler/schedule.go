package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sequence/internal/ir"
)

// LoadFile compiles every schedule declared under the top-level `schedule`
// field of a CUE file, in declaration order.
//
//	schedule: intro: {
//		precision: 1000
//		items: [
//			{kind: "group", items: [
//				{kind: "action", name: "fade", duration: 1.0},
//				{kind: "external", name: "say", handle: 7, duration: 2, at: 0.5, anchor: "previous_begin"},
//			]},
//		]
//	}
func LoadFile(path string) ([]ir.ScheduleSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}
	return LoadBytes(path, data)
}

// LoadBytes is LoadFile for in-memory sources. filename is used for
// error positions only.
func LoadBytes(filename string, data []byte) ([]ir.ScheduleSpec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schedules := v.LookupPath(cue.ParsePath("schedule"))
	if !schedules.Exists() {
		return nil, &CompileError{Field: "schedule", Message: "no schedules declared", Pos: v.Pos()}
	}

	iter, err := schedules.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []ir.ScheduleSpec
	for iter.Next() {
		spec, err := CompileSchedule(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// CompileSchedule parses a CUE value into a ScheduleSpec.
// The schedule name is the value's label unless a `name` field is given.
func CompileSchedule(v cue.Value) (*ir.ScheduleSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ScheduleSpec{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	name, ok, err := optionalString(v, "name")
	if err != nil {
		return nil, err
	}
	if ok {
		spec.Name = name
	}

	precision, ok, err := optionalFloat(v, "precision")
	if err != nil {
		return nil, err
	}
	if ok {
		if !ir.ValidPrecision(precision) {
			return nil, &CompileError{Field: "precision", Message: "must be positive and finite", Pos: v.Pos()}
		}
		spec.Precision = precision
	}

	itemsVal := v.LookupPath(cue.ParsePath("items"))
	if !itemsVal.Exists() {
		return nil, &CompileError{Field: "items", Message: "items is required", Pos: v.Pos()}
	}
	spec.Items, err = parseItems(itemsVal, "items")
	if err != nil {
		return nil, err
	}
	return spec, nil
}

// parseItems parses a list of schedule items, recursing into groups.
func parseItems(v cue.Value, field string) ([]ir.ItemSpec, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var items []ir.ItemSpec
	for i := 0; iter.Next(); i++ {
		item, err := parseItem(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func parseItem(v cue.Value, field string) (ir.ItemSpec, error) {
	var item ir.ItemSpec

	kind, ok, err := optionalString(v, "kind")
	if err != nil {
		return item, err
	}
	if !ok {
		return item, &CompileError{Field: field + ".kind", Message: "kind is required", Pos: v.Pos()}
	}
	item.Kind = kind

	if item.Name, _, err = optionalString(v, "name"); err != nil {
		return item, err
	}
	if item.Duration, _, err = optionalFloat(v, "duration"); err != nil {
		return item, err
	}
	if item.At, _, err = optionalFloat(v, "at"); err != nil {
		return item, err
	}
	if item.Anchor, _, err = optionalString(v, "anchor"); err != nil {
		return item, err
	}
	openEnded, ok, err := optionalBool(v, "open_ended")
	if err != nil {
		return item, err
	}
	if ok {
		item.OpenEnded = &openEnded
	}
	handle, _, err := optionalInt(v, "handle")
	if err != nil {
		return item, err
	}
	item.Handle = int(handle)

	if children := v.LookupPath(cue.ParsePath("items")); children.Exists() {
		if item.Items, err = parseItems(children, field+".items"); err != nil {
			return item, err
		}
	}

	if verr := validateItem(item, field); verr != nil {
		return item, &CompileError{Field: verr.Field, Message: verr.Message, Pos: v.Pos()}
	}
	return item, nil
}

func optionalString(v cue.Value, field string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func optionalFloat(v cue.Value, field string) (float64, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, false, nil
	}
	f, err := fv.Float64()
	if err != nil {
		return 0, false, formatCUEError(err)
	}
	return f, true, nil
}

func optionalInt(v cue.Value, field string) (int64, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, false, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, false, formatCUEError(err)
	}
	return n, true, nil
}

func optionalBool(v cue.Value, field string) (bool, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, false, formatCUEError(err)
	}
	return b, true, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
