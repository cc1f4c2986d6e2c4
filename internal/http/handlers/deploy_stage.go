package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/ngconsole/ngconsole/internal/ceazure"
	"github.com/ngconsole/ngconsole/internal/deploystage"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
	"github.com/ngconsole/ngconsole/internal/http/views"
	"github.com/ngconsole/ngconsole/internal/ngclient"
	"github.com/ngconsole/ngconsole/internal/servicecache"
	"github.com/ngconsole/ngconsole/internal/wizard"
)

const (
	sessionKeyStageDraft = "deploy_stage_draft"

	// serviceFetchSize bounds the services offered in the picker.
	serviceFetchSize = 100
)

type newServiceForm struct {
	Name       string `form:"service_name" validate:"required,max=128"`
	Identifier string `form:"service_identifier" validate:"required,identifier"`
}

// stageFromForm reads the stage fields. The value type selectors convert the
// service and environment before the visibility rules are applied.
func stageFromForm(form url.Values) deploystage.Stage {
	s := deploystage.Stage{
		Name:              form.Get("name"),
		Identifier:        form.Get("identifier"),
		DeploymentType:    form.Get("deployment_type"),
		Service:           deploystage.Value(form.Get("service")),
		Environment:       deploystage.Value(form.Get("environment")),
		Infrastructure:    deploystage.Value(form.Get("infrastructure")),
		ServiceInputs:     form.Get("service_inputs"),
		EnvironmentInputs: form.Get("environment_inputs"),
	}
	if kind := deploystage.ValueKind(form.Get("service_kind")); kind != "" {
		s.Service = s.Service.WithKind(kind)
	}
	if kind := deploystage.ValueKind(form.Get("environment_kind")); kind != "" {
		s.Environment = s.Environment.WithKind(kind)
	}
	return deploystage.Normalize(s)
}

func (h *Handlers) loadStageDraft(ctx context.Context) deploystage.Stage {
	var s deploystage.Stage
	if h.Sessions == nil {
		return deploystage.Normalize(s)
	}
	if raw := h.Sessions.GetString(ctx, sessionKeyStageDraft); raw != "" {
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			h.Sessions.Remove(ctx, sessionKeyStageDraft)
			s = deploystage.Stage{}
		}
	}
	return deploystage.Normalize(s)
}

func (h *Handlers) saveStageDraft(ctx context.Context, s deploystage.Stage) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode stage draft: %w", err)
	}
	h.Sessions.Put(ctx, sessionKeyStageDraft, string(raw))
	return nil
}

// refreshServices merges the backend service list into the session cache. A
// failed fetch keeps the cached services and reports a banner.
func (h *Handlers) refreshServices(c *echo.Context) (*servicecache.Cache, string) {
	ctx := c.Request().Context()
	cache, err := h.Services.Load(ctx)
	if err != nil {
		c.Logger().Warn("load service cache", "error", err)
	}
	page, err := h.API.ListServices(ctx, h.Scope(), ngclient.PageRequest{PageSize: serviceFetchSize})
	if err != nil {
		return cache, ngclient.ErrorMessage(err, "Could not load services.")
	}
	fetched := make([]servicecache.Service, 0, len(page.Content))
	for _, item := range page.Content {
		fetched = append(fetched, servicecache.FromAPI(item.Service))
	}
	cache.Merge(fetched)
	if err := h.Services.Save(ctx, cache); err != nil {
		c.Logger().Warn("save service cache", "error", err)
	}
	return cache, ""
}

func (h *Handlers) deployStageData(c *echo.Context, s deploystage.Stage, cache *servicecache.Cache) viewmodels.DeployStageViewData {
	data := viewmodels.DeployStageViewData{
		Layout:          h.LayoutData(c, "Deploy stage"),
		Stage:           s,
		Visibility:      deploystage.Fields(s),
		DeploymentTypes: deploystage.DeploymentTypes,
		ServiceKind:     s.Service.Kind(),
		EnvironmentKind: s.Environment.Kind(),
	}
	for _, svc := range cache.List() {
		data.Services = append(data.Services, viewmodels.ServiceOption{
			Identifier: svc.Identifier,
			Name:       svc.Name,
			Selected:   svc.Identifier == s.Service.String(),
			Local:      svc.Local,
		})
	}
	return data
}

func (h *Handlers) renderDeployStage(c *echo.Context, data viewmodels.DeployStageViewData) error {
	if isHX(c) {
		return h.RenderComponent(c, views.DeployStageForm(data))
	}
	return h.RenderComponent(c, views.DeployStagePage(data))
}

// HandleDeployStage renders the stage form with the saved draft.
func (h *Handlers) HandleDeployStage(c *echo.Context) error {
	cache, banner := h.refreshServices(c)
	data := h.deployStageData(c, h.loadStageDraft(c.Request().Context()), cache)
	data.Banner = banner
	return h.renderDeployStage(c, data)
}

// HandleDeployStageSubmit re-renders the form after a value type change,
// previews the stage YAML or saves the draft, depending on action.
func (h *Handlers) HandleDeployStageSubmit(c *echo.Context) error {
	form, err := formValues(c)
	if err != nil {
		return h.RenderError(c, err)
	}
	ctx := c.Request().Context()
	stage := stageFromForm(form)
	cache, err := h.Services.Load(ctx)
	if err != nil {
		c.Logger().Warn("load service cache", "error", err)
	}
	data := h.deployStageData(c, stage, cache)

	switch form.Get("action") {
	case "preview":
		if data.Errors = deploystage.Validate(stage); data.Errors != nil {
			break
		}
		preview, err := deploystage.Preview(stage)
		if err != nil {
			data.Banner = "The stage could not be rendered as YAML."
			c.Logger().Warn("preview deploy stage", "error", err)
			break
		}
		data.Preview = preview
	case "save":
		if data.Errors = deploystage.Validate(stage); data.Errors != nil {
			break
		}
		if err := h.saveStageDraft(ctx, stage); err != nil {
			return h.RenderError(c, err)
		}
		data.Saved = true
	}
	return h.renderDeployStage(c, data)
}

// HandleDeployStageCreateService creates a service inline and selects it in
// the stage form, which is submitted along with the service fields.
func (h *Handlers) HandleDeployStageCreateService(c *echo.Context) error {
	form, err := formValues(c)
	if err != nil {
		return h.RenderError(c, err)
	}
	ctx := c.Request().Context()
	stage := stageFromForm(form)
	cache, err := h.Services.Load(ctx)
	if err != nil {
		c.Logger().Warn("load service cache", "error", err)
	}

	input := newServiceForm{
		Name:       strings.TrimSpace(form.Get("service_name")),
		Identifier: strings.TrimSpace(form.Get("service_identifier")),
	}
	if input.Identifier == "" {
		input.Identifier = ceazure.IdentifierFromName(input.Name)
	}
	errs := wizard.Validate(input)
	if !errs.Empty() {
		data := h.deployStageData(c, stage, cache)
		data.NewService = viewmodels.ServiceOption{Name: input.Name, Identifier: input.Identifier}
		data.ServiceErrors = errs
		return h.renderDeployStage(c, data)
	}

	created, err := h.API.CreateService(ctx, ngclient.ServiceDTO{
		Name:              input.Name,
		Identifier:        input.Identifier,
		OrgIdentifier:     h.Cfg.OrgIdentifier,
		ProjectIdentifier: h.Cfg.ProjectIdentifier,
	})
	if err != nil {
		data := h.deployStageData(c, stage, cache)
		data.NewService = viewmodels.ServiceOption{Name: input.Name, Identifier: input.Identifier}
		data.ServiceErrors = map[string]string{"service_name": ngclient.ErrorMessage(err, "The service could not be created.")}
		return h.renderDeployStage(c, data)
	}

	svc := servicecache.FromAPI(created.Service)
	if svc.Identifier == "" {
		svc = servicecache.Service{Identifier: input.Identifier, Name: input.Name}
	}
	svc.Local = true
	cache.Upsert(svc)
	if err := h.Services.Save(ctx, cache); err != nil {
		return h.RenderError(c, err)
	}

	stage.Service = deploystage.Value(svc.Identifier)
	stage = deploystage.Normalize(stage)
	return h.renderDeployStage(c, h.deployStageData(c, stage, cache))
}
