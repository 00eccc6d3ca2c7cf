package tracker

import "fmt"

type Mode int

const (
	Closed Mode = iota
	Creating
	Editing
)

func (m Mode) String() string {
	switch m {
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	default:
		return "closed"
	}
}

const (
	FieldCategory = "category"
	FieldAmount   = "amount"
	FieldComments = "comments"
)

// FormState is a snapshot of the editor.
type FormState struct {
	Mode     Mode
	TargetID string
	Fields   Fields
}

func (s FormState) Open() bool {
	return s.Mode != Closed
}

// Editor is the add/edit form. It only moves along these edges:
//
//	Closed --OpenForAdd--> Creating
//	Closed --OpenForEdit--> Editing
//	Creating|Editing --Cancel or successful submit--> Closed
//
// The zero value is a closed editor. Editor is not safe for concurrent use;
// the Controller guards its own.
type Editor struct {
	state FormState
}

func (e *Editor) State() FormState {
	return e.state
}

func (e *Editor) OpenForAdd() error {
	if e.state.Open() {
		return ErrEditorOpen
	}
	e.state = FormState{Mode: Creating}
	return nil
}

func (e *Editor) OpenForEdit(r Record) error {
	if e.state.Open() {
		return ErrEditorOpen
	}
	e.state = FormState{Mode: Editing, TargetID: r.ID, Fields: r.Fields()}
	return nil
}

// SetField replaces one field with free text. Nothing is validated here.
func (e *Editor) SetField(name, value string) error {
	if !e.state.Open() {
		return ErrEditorClosed
	}
	switch name {
	case FieldCategory:
		e.state.Fields.Category = value
	case FieldAmount:
		e.state.Fields.Amount = value
	case FieldComments:
		e.state.Fields.Comments = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Cancel discards the form.
func (e *Editor) Cancel() error {
	if !e.state.Open() {
		return ErrEditorClosed
	}
	e.reset()
	return nil
}

func (e *Editor) reset() {
	e.state = FormState{}
}
