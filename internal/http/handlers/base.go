// Package handlers contains HTTP handler logic split by page.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/ngconsole/ngconsole/internal/ceazure"
	"github.com/ngconsole/ngconsole/internal/config"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
	"github.com/ngconsole/ngconsole/internal/listquery"
	"github.com/ngconsole/ngconsole/internal/ngclient"
	"github.com/ngconsole/ngconsole/internal/servicecache"
	"github.com/ngconsole/ngconsole/internal/wizard"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"

	sessionKeyClient = "client_id"
)

// Backend is the platform API used by the pages.
type Backend interface {
	ceazure.Backend

	ListPipelines(ctx context.Context, params ngclient.ListPipelinesParams, filter ngclient.PipelineFilter) (ngclient.Page[ngclient.PipelineSummary], error)
	GetPipeline(ctx context.Context, scope ngclient.Scope, identifier string) (ngclient.PipelineDetail, error)
	CreatePipeline(ctx context.Context, scope ngclient.Scope, yamlPipeline []byte) (ngclient.PipelineCreated, error)
	DeletePipeline(ctx context.Context, scope ngclient.Scope, identifier string) error
	RunPipeline(ctx context.Context, scope ngclient.Scope, identifier, moduleType string) (ngclient.PipelineExecution, error)
	GetFilter(ctx context.Context, scope ngclient.Scope, filterType, identifier string) (ngclient.FilterDTO, error)
	ListFilters(ctx context.Context, scope ngclient.Scope, filterType string) (ngclient.Page[ngclient.FilterDTO], error)

	ListMonitoredServices(ctx context.Context, params ngclient.ListMonitoredServicesParams) (ngclient.Page[ngclient.MonitoredServiceListItem], error)
	DeleteMonitoredService(ctx context.Context, scope ngclient.Scope, identifier string) error
	SetMonitoredServiceEnabled(ctx context.Context, scope ngclient.Scope, identifier string, enabled bool) error

	GetConnector(ctx context.Context, scope ngclient.Scope, identifier string) (ngclient.ConnectorResponse, error)
	ListServices(ctx context.Context, scope ngclient.Scope, page ngclient.PageRequest) (ngclient.Page[ngclient.ServiceResponse], error)
	CreateService(ctx context.Context, service ngclient.ServiceDTO) (ngclient.ServiceResponse, error)
}

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg         config.Config
	API         Backend
	Sessions    *scs.SessionManager
	Wizard      *wizard.Host[ceazure.Payload]
	WizardStore wizard.Store[ceazure.Payload]
	Services    *servicecache.SessionStore
	Tracker     *listquery.Tracker
}

// Scope is the organization and project the console works in.
func (h *Handlers) Scope() ngclient.Scope {
	return ngclient.Scope{OrgIdentifier: h.Cfg.OrgIdentifier, ProjectIdentifier: h.Cfg.ProjectIdentifier}
}

// LayoutData builds the common layout data for page rendering.
func (h *Handlers) LayoutData(c *echo.Context, title string) viewmodels.LayoutData {
	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return viewmodels.LayoutData{
		Title:      title,
		CSRFToken:  csrfToken,
		AccountID:  h.Cfg.AccountID,
		Toast:      popFlashToast(c),
		ActivePath: c.Request().URL.Path,
	}
}

// RenderComponent renders a templ component as the response.
func (h *Handlers) RenderComponent(c *echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request().Context(), c.Response()); err != nil {
		return h.RenderError(c, err)
	}
	return nil
}

// RenderError returns a plain text error response.
func (h *Handlers) RenderError(c *echo.Context, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	path := ""
	if req := c.Request(); req != nil && req.URL != nil {
		path = req.URL.Path
	}
	method := ""
	if req := c.Request(); req != nil {
		method = req.Method
	}
	c.Logger().Error("http error",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", c.RealIP(),
		"error", err,
	)

	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	msg = fmt.Sprintf("%s Code: %s.", msg, InternalErrorCode)
	return c.String(http.StatusInternalServerError, msg)
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c *echo.Context) error {
	return c.String(http.StatusNotFound, "404 page not found")
}

// ParseBoolForm parses a form value as a boolean.
func ParseBoolForm(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// clientKey identifies the browser session for request sequencing. The id is
// created on first use so that sessions without other data still get one.
func (h *Handlers) clientKey(ctx context.Context) string {
	if h.Sessions == nil {
		return "anonymous"
	}
	id := h.Sessions.GetString(ctx, sessionKeyClient)
	if id == "" {
		id = uuid.NewString()
		h.Sessions.Put(ctx, sessionKeyClient, id)
	}
	return id
}

func formValues(c *echo.Context) (url.Values, error) {
	req := c.Request()
	if err := req.ParseForm(); err != nil {
		return nil, err
	}
	return req.PostForm, nil
}
