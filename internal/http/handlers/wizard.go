package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/ngconsole/ngconsole/internal/ceazure"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
	"github.com/ngconsole/ngconsole/internal/http/views"
	"github.com/ngconsole/ngconsole/internal/ngclient"
	"github.com/ngconsole/ngconsole/internal/wizard"
)

// HandleWizardNew starts the connector wizard for a new connector.
func (h *Handlers) HandleWizardNew(c *echo.Context) error {
	state := h.Wizard.Start(ceazure.NewPayload())
	if err := h.WizardStore.Save(c.Request().Context(), state); err != nil {
		return h.RenderError(c, err)
	}
	return redirect(c, views.WizardHref)
}

// HandleWizardEdit starts the wizard pre-filled with an existing connector.
func (h *Handlers) HandleWizardEdit(c *echo.Context) error {
	identifier := strings.TrimSpace(c.Param("identifier"))
	if identifier == "" {
		return RenderNotFound(c)
	}
	ctx := c.Request().Context()
	resp, err := h.API.GetConnector(ctx, h.Scope(), identifier)
	if err != nil {
		var apiErr *ngclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return RenderNotFound(c)
		}
		toastError(c, "Could not open connector", ngclient.ErrorMessage(err, "The connector could not be loaded."))
		return redirect(c, views.ConnectorsHref)
	}
	payload, err := ceazure.FromConnector(resp.Connector)
	if err != nil {
		toastError(c, "Could not open connector", "This connector cannot be edited here.")
		c.Logger().Warn("edit connector", "identifier", identifier, "error", err)
		return redirect(c, views.ConnectorsHref)
	}
	if err := h.WizardStore.Save(ctx, h.Wizard.Start(payload)); err != nil {
		return h.RenderError(c, err)
	}
	return redirect(c, views.WizardHref)
}

// loadWizard returns the stored wizard, or false after redirecting to the
// connector list when there is none to resume.
func (h *Handlers) loadWizard(c *echo.Context) (wizard.State[ceazure.Payload], bool, error) {
	state, ok, err := h.WizardStore.Load(c.Request().Context())
	if err != nil {
		c.Logger().Warn("load wizard state", "error", err)
		ok = false
	}
	if !ok || state.Done {
		return state, false, redirect(c, views.ConnectorsHref)
	}
	return state, true, nil
}

// HandleWizard renders the current step of the stored wizard.
func (h *Handlers) HandleWizard(c *echo.Context) error {
	state, ok, err := h.loadWizard(c)
	if !ok {
		return err
	}
	state, view, err := h.Wizard.View(c.Request().Context(), state)
	if err != nil {
		return h.wizardFailed(c, err)
	}
	return h.renderWizard(c, state, view)
}

// HandleWizardSubmit hands the step form to the wizard. Finishing clears the
// stored state and returns to the connector list.
func (h *Handlers) HandleWizardSubmit(c *echo.Context) error {
	state, ok, err := h.loadWizard(c)
	if !ok {
		return err
	}
	values, err := formValues(c)
	if err != nil {
		return h.RenderError(c, err)
	}
	ctx := c.Request().Context()
	state, transition, view, err := h.Wizard.Submit(ctx, state, wizard.NewForm(values))
	if err != nil {
		return h.wizardFailed(c, err)
	}
	if transition == wizard.TransitionFinish {
		h.WizardStore.Clear(ctx)
		verb := "created"
		if state.Payload.IsEditMode {
			verb = "updated"
		}
		toastSuccess(c, "Connector saved", fmt.Sprintf("Connector %s was %s.", state.Payload.Name, verb))
		return redirect(c, views.ConnectorsHref)
	}
	return h.renderWizard(c, state, view)
}

// HandleWizardBack moves to the previous step without submitting the form.
func (h *Handlers) HandleWizardBack(c *echo.Context) error {
	state, ok, err := h.loadWizard(c)
	if !ok {
		return err
	}
	state, view, err := h.Wizard.View(c.Request().Context(), h.Wizard.Back(state))
	if err != nil {
		return h.wizardFailed(c, err)
	}
	return h.renderWizard(c, state, view)
}

// HandleWizardExtension opens or closes the side panel.
func (h *Handlers) HandleWizardExtension(c *echo.Context) error {
	state, ok, err := h.loadWizard(c)
	if !ok {
		return err
	}
	values, err := formValues(c)
	if err != nil {
		return h.RenderError(c, err)
	}
	state = h.Wizard.Extension(state, wizard.ExtensionCommand{
		Open: ParseBoolForm(values.Get("open")),
		Kind: wizard.ExtensionKind(strings.TrimSpace(values.Get("kind"))),
	})
	state, view, err := h.Wizard.View(c.Request().Context(), state)
	if err != nil {
		return h.wizardFailed(c, err)
	}
	return h.renderWizard(c, state, view)
}

// HandleWizardClose abandons the wizard.
func (h *Handlers) HandleWizardClose(c *echo.Context) error {
	h.WizardStore.Clear(c.Request().Context())
	return redirect(c, views.ConnectorsHref)
}

// wizardFailed discards state that no longer fits the wizard and reports
// other errors.
func (h *Handlers) wizardFailed(c *echo.Context, err error) error {
	if errors.Is(err, wizard.ErrKindMismatch) || errors.Is(err, wizard.ErrInvalidState) || errors.Is(err, wizard.ErrFinished) {
		c.Logger().Warn("discard wizard state", "error", err)
		h.WizardStore.Clear(c.Request().Context())
		return redirect(c, views.ConnectorsHref)
	}
	return h.RenderError(c, err)
}

func (h *Handlers) renderWizard(c *echo.Context, state wizard.State[ceazure.Payload], view wizard.View) error {
	if err := h.WizardStore.Save(c.Request().Context(), state); err != nil {
		return h.RenderError(c, err)
	}
	title := "Connect to Azure"
	if state.Payload.IsEditMode {
		title = "Edit Azure connector"
	}
	data := viewmodels.WizardViewData{
		Layout:    h.LayoutData(c, title),
		Title:     title,
		View:      view,
		Panel:     state.Panel,
		ActionURL: views.WizardHref,
		BackURL:   views.WizardBackHref,
		CloseURL:  views.WizardCloseHref,
		PanelURL:  views.WizardExtensionHref,
		Advisory:  view.Advisory,
		EditMode:  state.Payload.IsEditMode,
	}
	if data.Advisory == "" && state.Payload.DuplicateAdvisory {
		data.Advisory = ceazure.AdvisoryConnectorExists
	}
	data.Steps, data.First, data.Last = wizardSteps(h.Wizard.Steps(state))
	if isHX(c) {
		return h.RenderComponent(c, views.WizardDialog(data))
	}
	return h.RenderComponent(c, views.WizardPage(data))
}

// wizardSteps builds the progress rail and reports whether the current step
// is the first or the last applicable one.
func wizardSteps(steps []wizard.StepInfo) ([]viewmodels.WizardStepItem, bool, bool) {
	current := -1
	first, last := -1, -1
	for i, s := range steps {
		if s.Current {
			current = i
		}
		if s.Skipped {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	items := make([]viewmodels.WizardStepItem, 0, len(steps))
	for i, s := range steps {
		items = append(items, viewmodels.WizardStepItem{
			Title:   s.Title,
			Current: s.Current,
			Done:    i < current && !s.Skipped,
			Skipped: s.Skipped,
		})
	}
	return items, current == first, current == last
}
