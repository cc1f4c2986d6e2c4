package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
	"github.com/ngconsole/ngconsole/internal/wizard"
)

func validOverview() url.Values {
	return url.Values{
		"action":          {"next"},
		"name":            {"Azure prod"},
		"tenant_id":       {"b229b2bb-5f33-4d22-bce0-730f6474e906"},
		"subscription_id": {"e0d1e8a6-7a63-4f4c-9c5e-3d4b4b8f0e11"},
	}
}

func TestWizardNewThroughBillingStep(t *testing.T) {
	harness := newHarness(t)
	h := harness.handlers

	c, rec := harness.context(http.MethodGet, "/connectors/ce-azure/wizard/new", nil)
	if err := h.HandleWizardNew(c); err != nil {
		t.Fatalf("HandleWizardNew() error = %v", err)
	}
	assertStatus(t, rec, http.StatusSeeOther)
	if rec.Header().Get("Location") != "/connectors/ce-azure/wizard" {
		t.Fatalf("location = %q", rec.Header().Get("Location"))
	}

	c, rec = harness.context(http.MethodGet, "/connectors/ce-azure/wizard", nil)
	if err := h.HandleWizard(c); err != nil {
		t.Fatalf("HandleWizard() error = %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	assertContains(t, body, "<h2>Overview</h2>", `aria-current="step"`, "Connect to Azure")
	if strings.Contains(body, `value="back"`) {
		t.Fatal("first step rendered a Back button")
	}

	c, rec = harness.context(http.MethodPost, "/connectors/ce-azure/wizard", url.Values{"action": {"next"}})
	c.Request().Header.Set("HX-Request", "true")
	if err := h.HandleWizardSubmit(c); err != nil {
		t.Fatalf("HandleWizardSubmit() error = %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(), `id="tenant_id-error"`, `aria-invalid="true"`)

	c, rec = harness.context(http.MethodPost, "/connectors/ce-azure/wizard", validOverview())
	c.Request().Header.Set("HX-Request", "true")
	if err := h.HandleWizardSubmit(c); err != nil {
		t.Fatalf("HandleWizardSubmit() error = %v", err)
	}
	body = rec.Body.String()
	assertContains(t, body, "<h2>Azure billing export</h2>", `class="wizard-extension"`, `value="back"`)
	if strings.Contains(strings.ToLower(body), "<!doctype html>") {
		t.Fatal("HTMX submit returned the document shell")
	}

	state, ok, err := h.WizardStore.Load(harness.ctx)
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if state.Payload.Identifier != "Azure_prod" || !state.Panel.Visible {
		t.Fatalf("state = %+v", state)
	}

	c, rec = harness.context(http.MethodPost, "/connectors/ce-azure/wizard/extension", url.Values{"open": {"false"}})
	if err := h.HandleWizardExtension(c); err != nil {
		t.Fatalf("HandleWizardExtension() error = %v", err)
	}
	state, _, _ = h.WizardStore.Load(harness.ctx)
	if state.Panel.Visible {
		t.Fatal("panel still visible after close")
	}

	c, rec = harness.context(http.MethodPost, "/connectors/ce-azure/wizard/close", url.Values{})
	if err := h.HandleWizardClose(c); err != nil {
		t.Fatalf("HandleWizardClose() error = %v", err)
	}
	assertStatus(t, rec, http.StatusSeeOther)

	c, rec = harness.context(http.MethodGet, "/connectors/ce-azure/wizard", nil)
	if err := h.HandleWizard(c); err != nil {
		t.Fatalf("HandleWizard() error = %v", err)
	}
	assertStatus(t, rec, http.StatusSeeOther)
	if rec.Header().Get("Location") != "/connectors" {
		t.Fatalf("closed wizard location = %q", rec.Header().Get("Location"))
	}
}

func TestWizardEditPrefillsConnector(t *testing.T) {
	harness := newHarness(t)
	harness.api.connector = azureConnector("azure_prod")

	c, rec := harness.context(http.MethodGet, "/connectors/ce-azure/wizard/edit/azure_prod", nil)
	if err := harness.handlers.HandleWizardEdit(withParam(c, "identifier", "azure_prod")); err != nil {
		t.Fatalf("HandleWizardEdit() error = %v", err)
	}
	assertStatus(t, rec, http.StatusSeeOther)

	c, rec = harness.context(http.MethodGet, "/connectors/ce-azure/wizard", nil)
	if err := harness.handlers.HandleWizard(c); err != nil {
		t.Fatalf("HandleWizard() error = %v", err)
	}
	assertContains(t, rec.Body.String(), "Edit Azure connector", `value="azure_prod" readonly`)
}

func TestWizardEditUnknownConnector(t *testing.T) {
	harness := newHarness(t)

	c, rec := harness.context(http.MethodGet, "/connectors/ce-azure/wizard/edit/nope", nil)
	if err := harness.handlers.HandleWizardEdit(withParam(c, "identifier", "nope")); err != nil {
		t.Fatalf("HandleWizardEdit() error = %v", err)
	}
	assertStatus(t, rec, http.StatusNotFound)
}

func TestWizardSteps(t *testing.T) {
	t.Parallel()

	items, first, last := wizardSteps([]wizard.StepInfo{
		{Title: "Overview"},
		{Title: "Billing", Skipped: true},
		{Title: "Requirements", Current: true},
		{Title: "Verify"},
	})
	want := []viewmodels.WizardStepItem{
		{Title: "Overview", Done: true},
		{Title: "Billing", Skipped: true},
		{Title: "Requirements", Current: true},
		{Title: "Verify"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
	if first || last {
		t.Fatalf("first = %v last = %v", first, last)
	}

	_, first, last = wizardSteps([]wizard.StepInfo{{Title: "Overview", Current: true}, {Title: "Verify", Skipped: true}})
	if !first || !last {
		t.Fatalf("single applicable step: first = %v last = %v", first, last)
	}
}
