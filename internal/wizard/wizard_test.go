package wizard

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/google/go-cmp/cmp"
)

type testPayload struct {
	Values     []string `json:"values"`
	SkipSecond bool     `json:"skipSecond"`
}

func (testPayload) WizardKind() Kind { return "test" }

type otherPayload struct{}

func (otherPayload) WizardKind() Kind { return "other" }

type appendStep struct {
	name     string
	skipWhen func(testPayload) bool
}

func (s appendStep) Name() string  { return s.name }
func (s appendStep) Title() string { return "Step " + s.name }

func (s appendStep) Skip(p testPayload) bool {
	return s.skipWhen != nil && s.skipWhen(p)
}

func (s appendStep) View(ctx context.Context, props Props[testPayload]) (View, error) {
	return View{Data: props.Prev}, nil
}

func (s appendStep) Submit(ctx context.Context, props Props[testPayload], form Form) (View, error) {
	switch form.Get("action") {
	case "back":
		props.Back()
		return View{}, nil
	case "finish":
		props.Finish()
		return View{}, nil
	case "help":
		props.Panel.Trigger("help")
		return View{Data: props.Prev}, nil
	case "fail":
		return View{}, errors.New("boom")
	}
	value := form.Get("value")
	if value == "" {
		return View{Data: props.Prev, Errors: FieldErrors{}.Add("value", "This field is required.")}, nil
	}
	next := props.Prev
	next.Values = append(slices.Clone(props.Prev.Values), value)
	if form.Get("skip") == "1" {
		next.SkipSecond = true
	}
	props.Next(next)
	return View{}, nil
}

func newTestHost(t *testing.T) *Host[testPayload] {
	t.Helper()
	h, err := NewHost[testPayload]("test",
		appendStep{name: "first"},
		appendStep{name: "second", skipWhen: func(p testPayload) bool { return p.SkipSecond }},
		appendStep{name: "third"},
	)
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	return h
}

func submit(t *testing.T, h *Host[testPayload], s State[testPayload], values url.Values) (State[testPayload], Transition, View) {
	t.Helper()
	next, transition, view, err := h.Submit(context.Background(), s, NewForm(values))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return next, transition, view
}

func TestHostAccumulatesPayloadAcrossSteps(t *testing.T) {
	t.Parallel()

	h := newTestHost(t)
	s := h.Start(testPayload{})
	if s.Kind != "test" || s.Index != 0 {
		t.Fatalf("Start() = %+v", s)
	}

	s, transition, view := submit(t, h, s, url.Values{"value": {"a"}})
	if transition != TransitionNext || s.Index != 1 || view.Step != "second" {
		t.Fatalf("after first submit: transition=%s index=%d step=%s", transition, s.Index, view.Step)
	}
	s, _, _ = submit(t, h, s, url.Values{"value": {"b"}})
	s, transition, _ = submit(t, h, s, url.Values{"value": {"c"}})
	if transition != TransitionFinish || !s.Done {
		t.Fatalf("last submit: transition=%s done=%v", transition, s.Done)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, s.Payload.Values); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestHostStaysOnValidationErrors(t *testing.T) {
	t.Parallel()

	h := newTestHost(t)
	s := h.Start(testPayload{})
	next, transition, view := submit(t, h, s, url.Values{})
	if transition != TransitionStay || next.Index != 0 {
		t.Fatalf("transition=%s index=%d, want stay on 0", transition, next.Index)
	}
	if view.Errors.Get("value") == "" {
		t.Fatalf("expected inline error, got %+v", view.Errors)
	}
	if view.Title != "Step first" {
		t.Fatalf("Title = %q", view.Title)
	}
}

func TestHostSkipsStepsBothWays(t *testing.T) {
	t.Parallel()

	h := newTestHost(t)
	s := h.Start(testPayload{})
	s, _, view := submit(t, h, s, url.Values{"value": {"a"}, "skip": {"1"}})
	if s.Index != 2 || view.Step != "third" {
		t.Fatalf("index=%d step=%s, want third", s.Index, view.Step)
	}

	back, transition, view := submit(t, h, s, url.Values{"action": {"back"}})
	if transition != TransitionBack || back.Index != 0 || view.Step != "first" {
		t.Fatalf("back: transition=%s index=%d step=%s", transition, back.Index, view.Step)
	}
	if diff := cmp.Diff(s.Payload, back.Payload); diff != "" {
		t.Fatalf("back changed payload (-want +got):\n%s", diff)
	}

	infos := h.Steps(s)
	if !infos[1].Skipped || !infos[2].Current {
		t.Fatalf("Steps() = %+v", infos)
	}
}

func TestHostBackOnFirstStepStays(t *testing.T) {
	t.Parallel()

	h := newTestHost(t)
	s := h.Start(testPayload{Values: []string{"seed"}})
	if got := h.Back(s); got.Index != 0 {
		t.Fatalf("Back() index = %d, want 0", got.Index)
	}
}

func TestHostFinishAndStepErrors(t *testing.T) {
	t.Parallel()

	h := newTestHost(t)
	s := h.Start(testPayload{})
	done, transition, _ := submit(t, h, s, url.Values{"action": {"finish"}})
	if transition != TransitionFinish || !done.Done {
		t.Fatalf("finish: transition=%s done=%v", transition, done.Done)
	}
	if _, _, _, err := h.Submit(context.Background(), done, NewForm(nil)); !errors.Is(err, ErrFinished) {
		t.Fatalf("Submit on finished wizard err = %v, want ErrFinished", err)
	}

	if _, _, _, err := h.Submit(context.Background(), s, NewForm(url.Values{"action": {"fail"}})); err == nil {
		t.Fatal("expected step error to surface")
	}
}

func TestHostRejectsForeignState(t *testing.T) {
	t.Parallel()

	h := newTestHost(t)
	s := State[testPayload]{Kind: "other", Index: 0}
	if _, _, err := h.View(context.Background(), s); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("View() err = %v, want ErrKindMismatch", err)
	}
	s = State[testPayload]{Kind: "test", Index: 9}
	if _, _, err := h.View(context.Background(), s); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("View() err = %v, want ErrInvalidState", err)
	}
}

func TestHostFoldsPanelEvents(t *testing.T) {
	t.Parallel()

	h := newTestHost(t)
	s := h.Start(testPayload{})
	s, _, _ = submit(t, h, s, url.Values{"action": {"help"}})
	if !s.Panel.Visible || s.Panel.Kind != "help" {
		t.Fatalf("Panel = %+v, want visible help", s.Panel)
	}
	s = h.Extension(s, ExtensionCommand{})
	if s.Panel.Visible {
		t.Fatalf("Panel = %+v, want closed", s.Panel)
	}
	s = h.Extension(s, ExtensionCommand{Open: true, Kind: "docs"})
	if !s.Panel.Visible || s.Panel.Kind != "docs" {
		t.Fatalf("Panel = %+v, want visible docs", s.Panel)
	}
}

type helpOnEnterStep struct {
	appendStep
}

func (helpOnEnterStep) Enter(p testPayload, panel Panel) {
	panel.Trigger("help")
}

func TestEnterOpensPanelOnceAndCloseSticks(t *testing.T) {
	t.Parallel()

	h, err := NewHost[testPayload]("test", appendStep{name: "first"}, helpOnEnterStep{appendStep{name: "second"}})
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	s := h.Start(testPayload{})
	if s.Panel.Visible {
		t.Fatalf("Panel = %+v on first step, want closed", s.Panel)
	}
	s, _, _ = submit(t, h, s, url.Values{"value": {"a"}})
	if !s.Panel.Visible || s.Panel.Kind != "help" {
		t.Fatalf("Panel = %+v after entering, want visible help", s.Panel)
	}

	s = h.Extension(s, ExtensionCommand{})
	s, _, err = h.View(context.Background(), s)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if s.Panel.Visible {
		t.Fatalf("Panel = %+v after close and re-render, want closed", s.Panel)
	}
	s, transition, _ := submit(t, h, s, url.Values{})
	if transition != TransitionStay || s.Panel.Visible {
		t.Fatalf("invalid submit: transition=%s panel=%+v", transition, s.Panel)
	}

	s, _, _ = submit(t, h, s, url.Values{"action": {"back"}})
	if s.Index != 0 || s.Panel.Visible {
		t.Fatalf("back: index=%d panel=%+v", s.Index, s.Panel)
	}
	s, _, _ = submit(t, h, s, url.Values{"value": {"b"}})
	if !s.Panel.Visible {
		t.Fatal("re-entering the step must open the panel again")
	}
}

func TestExtensionBusUnsubscribe(t *testing.T) {
	t.Parallel()

	bus := NewExtensionBus()
	var got []ExtensionEvent
	unsubscribe := bus.Subscribe(func(ev ExtensionEvent) { got = append(got, ev) })
	bus.Trigger("billing_export_help")
	bus.Close()
	unsubscribe()
	bus.Trigger("ignored")

	want := []ExtensionEvent{{Type: EventOpened, Kind: "billing_export_help"}, {Type: EventClosed}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateUsesFormNames(t *testing.T) {
	t.Parallel()

	type form struct {
		Name       string `form:"name" validate:"required,max=5"`
		Identifier string `form:"identifier" validate:"required,identifier"`
		TenantID   string `form:"tenant_id" validate:"required,guid"`
	}
	errs := Validate(form{Name: "too long name", Identifier: "9abc", TenantID: "not-a-guid"})
	if diff := cmp.Diff([]string{"identifier", "name", "tenant_id"}, errs.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if errs := Validate(form{Name: "ok", Identifier: "ok_1", TenantID: "0F8FAD5B-D9CB-469F-A165-70867728950E"}); !errs.Empty() {
		t.Fatalf("Validate(valid) = %v", errs)
	}
}

func TestSessionStoreRoundTripAndKindCheck(t *testing.T) {
	t.Parallel()

	sessions := scs.New()
	ctx, err := sessions.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("sessions.Load: %v", err)
	}

	store := NewSessionStore[testPayload](sessions, "wizard.test")
	if _, ok, err := store.Load(ctx); ok || err != nil {
		t.Fatalf("Load(empty) = ok %v err %v", ok, err)
	}

	want := State[testPayload]{Kind: "test", Index: 2, Payload: testPayload{Values: []string{"a"}}, Panel: PanelState{Visible: true, Kind: "help"}}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load = ok %v err %v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}

	other := NewSessionStore[otherPayload](sessions, "wizard.test")
	if _, ok, err := other.Load(ctx); ok || !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("Load(foreign) = ok %v err %v, want ErrKindMismatch", ok, err)
	}
	if _, ok, _ := store.Load(ctx); ok {
		t.Fatal("foreign load should have cleared the state")
	}

	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	store.Clear(ctx)
	if _, ok, _ := store.Load(ctx); ok {
		t.Fatal("Clear did not remove the state")
	}
}

func TestValidateUsesPatternTags(t *testing.T) {
	t.Parallel()

	type form struct {
		TenantID   string `form:"tenant_id" validate:"required,guid"`
		Identifier string `form:"identifier" validate:"required,identifier"`
	}
	errs := Validate(form{TenantID: "not-a-guid", Identifier: "9lives"})
	if errs.Get("tenant_id") == "" || errs.Get("identifier") == "" {
		t.Fatalf("Validate() = %v, want guid and identifier errors", errs)
	}
	if errs := Validate(form{TenantID: "00000000-0000-0000-0000-000000000000", Identifier: "azure_prod"}); !errs.Empty() {
		t.Fatalf("Validate(valid) = %v", errs)
	}
}

func TestMustRegisterPatternPanicsOnBadTag(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an empty tag")
		}
	}()
	mustRegisterPattern(newValidator(), "", identifierPattern)
}
