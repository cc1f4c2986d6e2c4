package httpapp

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/ngconsole/ngconsole/internal/ceazure"
	"github.com/ngconsole/ngconsole/internal/config"
	"github.com/ngconsole/ngconsole/internal/http/handlers"
	"github.com/ngconsole/ngconsole/internal/http/static"
	"github.com/ngconsole/ngconsole/internal/listquery"
	"github.com/ngconsole/ngconsole/internal/servicecache"
	"github.com/ngconsole/ngconsole/internal/wizard"
)

const (
	sessionKeyWizard   = "ce_azure_wizard"
	sessionKeyServices = "deploy_services"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h        *handlers.Handlers
	e        *echo.Echo
	sessions *scs.SessionManager
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(cfg config.Config, api handlers.Backend, sessions *scs.SessionManager, host *wizard.Host[ceazure.Payload]) (*EchoServer, error) {
	if api == nil {
		return nil, errors.New("backend is required")
	}
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if host == nil {
		return nil, errors.New("wizard host is required")
	}
	h := &handlers.Handlers{
		Cfg:         cfg,
		API:         api,
		Sessions:    sessions,
		Wizard:      host,
		WizardStore: wizard.NewSessionStore[ceazure.Payload](sessions, sessionKeyWizard),
		Services:    servicecache.NewSessionStore(sessions, sessionKeyServices, cfg.ServiceCacheLimit),
		Tracker:     listquery.NewTracker(),
	}
	es := &EchoServer{h: h, e: echo.New(), sessions: sessions}
	es.e.HTTPErrorHandler = es.httpErrorHandler
	es.e.Use(requestID)
	es.e.Use(middleware.Recover())
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.GET("/healthz", func(c *echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	es.e.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", http.FileServerFS(static.FS))))

	app := es.e.Group("")
	app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	}))
	app.GET("/", func(c *echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/pipelines")
	})

	app.GET("/pipelines", es.h.HandlePipelines)
	app.GET("/pipelines/:identifier", es.h.HandlePipelineShow)
	app.POST("/pipelines/:identifier/run", es.h.HandlePipelineRun)
	app.POST("/pipelines/:identifier/clone", es.h.HandlePipelineClone)
	app.GET("/pipelines/:identifier/delete", es.h.HandlePipelineDeleteConfirm)
	app.POST("/pipelines/:identifier/delete", es.h.HandlePipelineDelete)

	app.GET("/monitored-services", es.h.HandleMonitoredServices)
	app.POST("/monitored-services/:identifier/enabled", es.h.HandleMonitoredServiceToggle)
	app.GET("/monitored-services/:identifier/delete", es.h.HandleMonitoredServiceDeleteConfirm)
	app.POST("/monitored-services/:identifier/delete", es.h.HandleMonitoredServiceDelete)

	app.GET("/connectors", es.h.HandleConnectors)
	app.GET("/connectors/ce-azure/wizard", es.h.HandleWizard)
	app.POST("/connectors/ce-azure/wizard", es.h.HandleWizardSubmit)
	app.GET("/connectors/ce-azure/wizard/new", es.h.HandleWizardNew)
	app.GET("/connectors/ce-azure/wizard/edit/:identifier", es.h.HandleWizardEdit)
	app.POST("/connectors/ce-azure/wizard/back", es.h.HandleWizardBack)
	app.POST("/connectors/ce-azure/wizard/extension", es.h.HandleWizardExtension)
	app.POST("/connectors/ce-azure/wizard/close", es.h.HandleWizardClose)

	app.GET("/deploy-stage", es.h.HandleDeployStage)
	app.POST("/deploy-stage", es.h.HandleDeployStageSubmit)
	app.POST("/deploy-stage/services", es.h.HandleDeployStageCreateService)
}

// requestID tags every request with an id that is echoed in X-Request-ID and
// quoted in internal error responses.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := strings.TrimSpace(c.Request().Header.Get(echo.HeaderXRequestID))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(handlers.ContextKeyRequestID, id)
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}

type statusCoder interface {
	StatusCode() int
}

func httpStatusFromError(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 400 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// httpErrorHandler never echoes error text to the client. Internal errors get
// a reference to the request id in the logs.
func (es *EchoServer) httpErrorHandler(c *echo.Context, err error) {
	code := httpStatusFromError(err)
	if code >= http.StatusInternalServerError {
		if renderErr := es.h.RenderError(c, err); renderErr != nil {
			c.Logger().Error("render error response", "error", renderErr)
		}
		return
	}

	var writeErr error
	switch code {
	case http.StatusNotFound:
		writeErr = handlers.RenderNotFound(c)
	default:
		writeErr = c.String(code, http.StatusText(code))
	}
	if writeErr != nil {
		c.Logger().Error("write error response", "status", code, "error", writeErr)
	}
}

// Handler returns the application wrapped in session loading and saving.
func (es *EchoServer) Handler() http.Handler {
	return es.sessions.LoadAndSave(es.e)
}

// StartServer serves on server, replacing its handler with Handler.
func (es *EchoServer) StartServer(server *http.Server) error {
	if server == nil {
		return fmt.Errorf("http server is required")
	}
	server.Handler = es.Handler()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
