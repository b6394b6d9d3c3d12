// internal/wizard/state.go
package wizard

import (
	"recruitment-portal/internal/ingest"
	"recruitment-portal/internal/models"
)

type Step int

const (
	StepPosition Step = iota
	StepIdentity
	StepEducation
	StepDocuments
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepPosition:
		return "position"
	case StepIdentity:
		return "identity"
	case StepEducation:
		return "education"
	case StepDocuments:
		return "documents"
	case StepSubmitted:
		return "submitted"
	}
	return "unknown"
}

// State is the value the reducer folds events into.
type State struct {
	Step          Step
	Draft         Draft
	Slots         map[ingest.SlotKey]*ingest.Record
	Errors        ErrorMap
	ApplicationID string
}

func NewState() State {
	return State{
		Step:   StepPosition,
		Slots:  map[ingest.SlotKey]*ingest.Record{},
		Errors: ErrorMap{},
	}
}

// Event is one of Next, Back, FieldsChanged, Attached, Detached, Rejected or Submitted.
type Event interface {
	isEvent()
}

// Next asks to leave the current step; Positions is the active position snapshot.
type Next struct {
	Positions []models.Position
}

type Back struct{}

type FieldsChanged struct {
	Fields map[string]string
}

type Attached struct {
	Record *ingest.Record
}

type Detached struct {
	Slot ingest.SlotKey
}

// Rejected records a field-addressable ingestion failure for a slot.
type Rejected struct {
	Slot    ingest.SlotKey
	Message string
}

// Submitted is produced only after the application record persisted.
type Submitted struct {
	ApplicationID string
}

func (Next) isEvent()          {}
func (Back) isEvent()          {}
func (FieldsChanged) isEvent() {}
func (Attached) isEvent()      {}
func (Detached) isEvent()      {}
func (Rejected) isEvent()      {}
func (Submitted) isEvent()     {}

// Reduce returns the state after ev. It never mutates s.
func Reduce(s State, ev Event) State {
	if s.Step == StepSubmitted {
		return s
	}
	next := s.clone()

	switch e := ev.(type) {
	case Next:
		errs := ValidateStep(s.Step, s.Draft, s.Slots, e.Positions)
		next.Errors = errs
		if len(errs) == 0 && s.Step < StepDocuments {
			next.Step = s.Step + 1
		}
	case Back:
		if s.Step > StepPosition {
			next.Step = s.Step - 1
		}
		next.Errors = ErrorMap{}
	case FieldsChanged:
		next.Draft = s.Draft.With(e.Fields)
		for name := range e.Fields {
			delete(next.Errors, name)
		}
	case Attached:
		if e.Record != nil {
			next.Slots[e.Record.Slot] = e.Record
			delete(next.Errors, string(e.Record.Slot))
		}
	case Detached:
		delete(next.Slots, e.Slot)
	case Rejected:
		next.Errors[string(e.Slot)] = e.Message
	case Submitted:
		if s.Step != StepDocuments || len(ValidateStep(StepDocuments, s.Draft, s.Slots, nil)) > 0 {
			return s
		}
		next.Step = StepSubmitted
		next.ApplicationID = e.ApplicationID
		next.Errors = ErrorMap{}
		for key, rec := range next.Slots {
			cp := *rec
			cp.Preview = nil
			next.Slots[key] = &cp
		}
	}
	return next
}

func (s State) clone() State {
	out := s
	out.Slots = make(map[ingest.SlotKey]*ingest.Record, len(s.Slots))
	for k, v := range s.Slots {
		out.Slots[k] = v
	}
	out.Errors = make(ErrorMap, len(s.Errors))
	for k, v := range s.Errors {
		out.Errors[k] = v
	}
	return out
}
