// Package wizard hosts multi-step forms whose payload is threaded from one
// step to the next.
//
// A Host owns the ordered steps and the wizard State. Each step receives the
// payload handed over by the previous step through Props and calls Next with
// a fresh payload to advance, Back to retreat, or Finish to close the wizard.
// Steps never see each other and never share mutable state.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ngconsole/ngconsole/internal/metrics"
)

var (
	ErrKindMismatch = errors.New("wizard state belongs to a different wizard")
	ErrInvalidState = errors.New("wizard state is invalid")
	ErrFinished     = errors.New("wizard already finished")
)

// Kind tags a payload type with the wizard it belongs to.
type Kind string

// Payload is the accumulated data of one wizard variant.
type Payload interface {
	WizardKind() Kind
}

// Form is the submitted form of a step.
type Form struct {
	url.Values
}

func NewForm(values url.Values) Form {
	if values == nil {
		values = url.Values{}
	}
	return Form{Values: values}
}

// Get returns the trimmed value of key.
func (f Form) Get(key string) string {
	return strings.TrimSpace(f.Values.Get(key))
}

// All returns the trimmed non-empty values of key.
func (f Form) All(key string) []string {
	out := make([]string, 0, len(f.Values[key]))
	for _, v := range f.Values[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (f Form) Has(key string) bool {
	_, ok := f.Values[key]
	return ok
}

// View is what a step wants rendered.
type View struct {
	Step     string
	Title    string
	Data     any
	Errors   FieldErrors
	Banner   string
	Advisory string
}

type Transition string

const (
	TransitionStay   Transition = "stay"
	TransitionNext   Transition = "next"
	TransitionBack   Transition = "back"
	TransitionFinish Transition = "finish"
)

// Step is one screen of a wizard.
type Step[P Payload] interface {
	Name() string
	Title() string
	View(ctx context.Context, props Props[P]) (View, error)
	Submit(ctx context.Context, props Props[P], form Form) (View, error)
}

// Skipper is implemented by steps that do not apply to every payload.
type Skipper[P Payload] interface {
	Skip(payload P) bool
}

// Enterer is implemented by steps that act once when the wizard arrives on
// them. Panel events raised in Enter are kept until the user closes the panel.
type Enterer[P Payload] interface {
	Enter(payload P, panel Panel)
}

// Props is handed to a step on every render and submit.
type Props[P Payload] struct {
	Prev  P
	Panel Panel

	next   func(P)
	back   func()
	finish func()
}

// Next advances the wizard with payload.
func (p Props[P]) Next(payload P) {
	if p.next != nil {
		p.next(payload)
	}
}

// Back returns to the previous step with the payload unchanged.
func (p Props[P]) Back() {
	if p.back != nil {
		p.back()
	}
}

// Finish closes the wizard.
func (p Props[P]) Finish() {
	if p.finish != nil {
		p.finish()
	}
}

// State is the persisted position of a wizard.
type State[P Payload] struct {
	Kind    Kind       `json:"kind"`
	Index   int        `json:"index"`
	Payload P          `json:"payload"`
	Panel   PanelState `json:"panel"`
	Done    bool       `json:"done"`
}

// Host drives the steps of one wizard.
type Host[P Payload] struct {
	name  string
	kind  Kind
	steps []Step[P]
}

func NewHost[P Payload](name string, steps ...Step[P]) (*Host[P], error) {
	if len(steps) == 0 {
		return nil, errors.New("wizard needs at least one step")
	}
	var zero P
	return &Host[P]{name: name, kind: zero.WizardKind(), steps: steps}, nil
}

func (h *Host[P]) Name() string { return h.name }
func (h *Host[P]) Kind() Kind   { return h.kind }

// StepInfo describes a step for progress indicators.
type StepInfo struct {
	Name    string
	Title   string
	Current bool
	Skipped bool
}

func (h *Host[P]) Steps(s State[P]) []StepInfo {
	out := make([]StepInfo, 0, len(h.steps))
	for i, step := range h.steps {
		out = append(out, StepInfo{
			Name:    step.Name(),
			Title:   step.Title(),
			Current: i == s.Index,
			Skipped: h.skipped(i, s.Payload),
		})
	}
	return out
}

// Start positions a new wizard on its first applicable step.
func (h *Host[P]) Start(initial P) State[P] {
	s := State[P]{Kind: h.kind, Index: 0, Payload: initial}
	if idx, ok := h.following(-1, initial); ok {
		s.Index = idx
	}
	return h.enter(s)
}

func (h *Host[P]) Current(s State[P]) (Step[P], error) {
	if err := h.check(s); err != nil {
		return nil, err
	}
	return h.steps[s.Index], nil
}

// View renders the current step. Panel events raised while rendering are
// folded into the returned state.
func (h *Host[P]) View(ctx context.Context, s State[P]) (State[P], View, error) {
	step, err := h.Current(s)
	if err != nil {
		return s, View{}, err
	}
	if s.Done {
		return s, View{}, ErrFinished
	}
	bus, panel := h.panel(s.Panel)
	defer bus.unsubscribe()

	view, err := step.View(ctx, Props[P]{Prev: s.Payload, Panel: bus})
	s.Panel = *panel
	if err != nil {
		return s, View{}, err
	}
	return s, h.decorate(step, view), nil
}

// Submit hands the form to the current step and applies whichever callback
// the step invoked. Without a callback the wizard stays on the step and the
// step's view is returned.
func (h *Host[P]) Submit(ctx context.Context, s State[P], form Form) (State[P], Transition, View, error) {
	step, err := h.Current(s)
	if err != nil {
		return s, TransitionStay, View{}, err
	}
	if s.Done {
		return s, TransitionStay, View{}, ErrFinished
	}
	bus, panel := h.panel(s.Panel)
	defer bus.unsubscribe()

	var (
		transition = TransitionStay
		nextValue  P
	)
	props := Props[P]{
		Prev:  s.Payload,
		Panel: bus,
		next: func(p P) {
			transition = TransitionNext
			nextValue = p
		},
		back:   func() { transition = TransitionBack },
		finish: func() { transition = TransitionFinish },
	}

	view, err := step.Submit(ctx, props, form)
	s.Panel = *panel
	if err != nil {
		h.record(step, "error")
		return s, TransitionStay, View{}, err
	}
	h.record(step, string(transition))

	switch transition {
	case TransitionNext:
		idx, ok := h.following(s.Index, nextValue)
		s.Payload = nextValue
		if !ok {
			s.Done = true
			return s, TransitionFinish, View{}, nil
		}
		s.Index = idx
		s.Panel = PanelState{}
		s = h.enter(s)
	case TransitionBack:
		s = h.Back(s)
	case TransitionFinish:
		s.Done = true
		return s, TransitionFinish, View{}, nil
	default:
		return s, TransitionStay, h.decorate(step, view), nil
	}

	s, view, err = h.View(ctx, s)
	return s, transition, view, err
}

// Back moves to the previous applicable step and keeps the payload.
func (h *Host[P]) Back(s State[P]) State[P] {
	if h.check(s) != nil || s.Done {
		return s
	}
	for i := s.Index - 1; i >= 0; i-- {
		if !h.skipped(i, s.Payload) {
			s.Index = i
			s.Panel = PanelState{}
			return h.enter(s)
		}
	}
	return s
}

// Extension applies a panel command issued outside of a step.
func (h *Host[P]) Extension(s State[P], cmd ExtensionCommand) State[P] {
	bus, panel := h.panel(s.Panel)
	defer bus.unsubscribe()
	if cmd.Open {
		bus.Trigger(cmd.Kind)
	} else {
		bus.Close()
	}
	s.Panel = *panel
	return s
}

// enter runs the Enter hook of the current step, if any.
func (h *Host[P]) enter(s State[P]) State[P] {
	if h.check(s) != nil {
		return s
	}
	enterer, ok := h.steps[s.Index].(Enterer[P])
	if !ok {
		return s
	}
	bus, panel := h.panel(s.Panel)
	defer bus.unsubscribe()
	enterer.Enter(s.Payload, bus)
	s.Panel = *panel
	return s
}

func (h *Host[P]) check(s State[P]) error {
	if s.Kind != h.kind {
		return fmt.Errorf("%w: got %q, want %q", ErrKindMismatch, s.Kind, h.kind)
	}
	if s.Index < 0 || s.Index >= len(h.steps) {
		return fmt.Errorf("%w: step index %d", ErrInvalidState, s.Index)
	}
	return nil
}

func (h *Host[P]) following(from int, payload P) (int, bool) {
	for i := from + 1; i < len(h.steps); i++ {
		if !h.skipped(i, payload) {
			return i, true
		}
	}
	return 0, false
}

func (h *Host[P]) skipped(i int, payload P) bool {
	skipper, ok := h.steps[i].(Skipper[P])
	return ok && skipper.Skip(payload)
}

func (h *Host[P]) panel(current PanelState) (*subscription, *PanelState) {
	state := current
	bus := NewExtensionBus()
	sub := &subscription{ExtensionBus: bus}
	sub.unsubscribe = bus.Subscribe(func(ev ExtensionEvent) {
		state = state.Apply(ev)
	})
	return sub, &state
}

func (h *Host[P]) decorate(step Step[P], view View) View {
	if view.Step == "" {
		view.Step = step.Name()
	}
	if view.Title == "" {
		view.Title = step.Title()
	}
	return view
}

func (h *Host[P]) record(step Step[P], outcome string) {
	metrics.WizardTransitionsTotal.WithLabelValues(h.name, step.Name(), outcome).Inc()
}

type subscription struct {
	*ExtensionBus
	unsubscribe func()
}
