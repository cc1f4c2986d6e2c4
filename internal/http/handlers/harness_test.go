package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v5"
	"github.com/ngconsole/ngconsole/internal/ceazure"
	"github.com/ngconsole/ngconsole/internal/config"
	"github.com/ngconsole/ngconsole/internal/listquery"
	"github.com/ngconsole/ngconsole/internal/ngclient"
	"github.com/ngconsole/ngconsole/internal/servicecache"
	"github.com/ngconsole/ngconsole/internal/wizard"
)

// fakeBackend serves canned pages and records the calls that change state.
type fakeBackend struct {
	mu sync.Mutex

	pipelines    ngclient.Page[ngclient.PipelineSummary]
	pipelinesErr error
	pipelineYAML string
	filters      []ngclient.FilterDTO
	monitored    ngclient.Page[ngclient.MonitoredServiceListItem]
	connectors   ngclient.Page[ngclient.ConnectorResponse]
	connector    ngclient.ConnectorResponse
	services     []ngclient.ServiceResponse

	listParams    []ngclient.ListPipelinesParams
	listBodies    []ngclient.PipelineFilter
	created       [][]byte
	deleted       []string
	ran           []string
	toggled       map[string]bool
	newServices   []ngclient.ServiceDTO
	connectorsOut []ngclient.ConnectorInfo
}

func (f *fakeBackend) ListPipelines(_ context.Context, params ngclient.ListPipelinesParams, filter ngclient.PipelineFilter) (ngclient.Page[ngclient.PipelineSummary], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listParams = append(f.listParams, params)
	f.listBodies = append(f.listBodies, filter)
	return f.pipelines, f.pipelinesErr
}

func (f *fakeBackend) GetPipeline(_ context.Context, _ ngclient.Scope, identifier string) (ngclient.PipelineDetail, error) {
	if f.pipelineYAML == "" {
		return ngclient.PipelineDetail{}, &ngclient.APIError{StatusCode: http.StatusNotFound, Message: "pipeline " + identifier + " not found"}
	}
	return ngclient.PipelineDetail{YamlPipeline: f.pipelineYAML}, nil
}

func (f *fakeBackend) CreatePipeline(_ context.Context, _ ngclient.Scope, yamlPipeline []byte) (ngclient.PipelineCreated, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, yamlPipeline)
	return ngclient.PipelineCreated{}, nil
}

func (f *fakeBackend) DeletePipeline(_ context.Context, _ ngclient.Scope, identifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, identifier)
	return nil
}

func (f *fakeBackend) RunPipeline(_ context.Context, _ ngclient.Scope, identifier, _ string) (ngclient.PipelineExecution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ran = append(f.ran, identifier)
	return ngclient.PipelineExecution{PlanExecution: ngclient.PlanExecution{UUID: "exec-1", Status: "RUNNING"}}, nil
}

func (f *fakeBackend) GetFilter(_ context.Context, _ ngclient.Scope, _, identifier string) (ngclient.FilterDTO, error) {
	for _, flt := range f.filters {
		if flt.Identifier == identifier {
			return flt, nil
		}
	}
	return ngclient.FilterDTO{}, &ngclient.APIError{StatusCode: http.StatusNotFound, Message: "filter not found"}
}

func (f *fakeBackend) ListFilters(context.Context, ngclient.Scope, string) (ngclient.Page[ngclient.FilterDTO], error) {
	return ngclient.Page[ngclient.FilterDTO]{Content: f.filters}, nil
}

func (f *fakeBackend) ListMonitoredServices(context.Context, ngclient.ListMonitoredServicesParams) (ngclient.Page[ngclient.MonitoredServiceListItem], error) {
	return f.monitored, nil
}

func (f *fakeBackend) DeleteMonitoredService(_ context.Context, _ ngclient.Scope, identifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, identifier)
	return nil
}

func (f *fakeBackend) SetMonitoredServiceEnabled(_ context.Context, _ ngclient.Scope, identifier string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggled == nil {
		f.toggled = map[string]bool{}
	}
	f.toggled[identifier] = enabled
	return nil
}

func (f *fakeBackend) GetConnector(_ context.Context, _ ngclient.Scope, identifier string) (ngclient.ConnectorResponse, error) {
	if f.connector.Connector.Identifier != identifier {
		return ngclient.ConnectorResponse{}, &ngclient.APIError{StatusCode: http.StatusNotFound}
	}
	return f.connector, nil
}

func (f *fakeBackend) ListServices(context.Context, ngclient.Scope, ngclient.PageRequest) (ngclient.Page[ngclient.ServiceResponse], error) {
	return ngclient.Page[ngclient.ServiceResponse]{Content: f.services}, nil
}

func (f *fakeBackend) CreateService(_ context.Context, service ngclient.ServiceDTO) (ngclient.ServiceResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newServices = append(f.newServices, service)
	return ngclient.ServiceResponse{Service: service}, nil
}

func (f *fakeBackend) ListConnectors(_ context.Context, filter ngclient.ConnectorFilter, _ ngclient.PageRequest) (ngclient.Page[ngclient.ConnectorResponse], error) {
	if filter.CCMConnectorFilter != nil {
		return ngclient.Page[ngclient.ConnectorResponse]{}, nil
	}
	return f.connectors, nil
}

func (f *fakeBackend) ListAzureBillingExports(context.Context, string, string) ([]ngclient.AzureBillingExportSpec, error) {
	return nil, nil
}

func (f *fakeBackend) GetAzureAppClientID(context.Context) (string, error) {
	return "00000000-0000-0000-0000-0000000000aa", nil
}

func (f *fakeBackend) CreateConnector(_ context.Context, connector ngclient.ConnectorInfo) (ngclient.ConnectorResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectorsOut = append(f.connectorsOut, connector)
	return ngclient.ConnectorResponse{Connector: connector}, nil
}

func (f *fakeBackend) UpdateConnector(ctx context.Context, connector ngclient.ConnectorInfo) (ngclient.ConnectorResponse, error) {
	return f.CreateConnector(ctx, connector)
}

func (f *fakeBackend) TestConnection(context.Context, ngclient.Scope, string) (ngclient.ConnectorValidationResult, error) {
	return ngclient.ConnectorValidationResult{Status: ngclient.StatusSuccess}, nil
}

type harness struct {
	t        *testing.T
	echo     *echo.Echo
	api      *fakeBackend
	handlers *Handlers
	ctx      context.Context
}

// newHarness wires handlers to a fake backend and one loaded session that all
// requests of the harness share.
func newHarness(t *testing.T) *harness {
	t.Helper()

	sessions := scs.New()
	ctx, err := sessions.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("sessions.Load: %v", err)
	}
	api := &fakeBackend{}
	host, err := ceazure.NewHost(config.WizardVariantStandard, api)
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	e := echo.New()
	e.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	return &harness{
		t:    t,
		echo: e,
		api:  api,
		ctx:  ctx,
		handlers: &Handlers{
			Cfg:         config.Config{DefaultPageSize: 20, OrgIdentifier: "default", ProjectIdentifier: "web"},
			API:         api,
			Sessions:    sessions,
			Wizard:      host,
			WizardStore: wizard.NewSessionStore[ceazure.Payload](sessions, "wizard"),
			Services:    servicecache.NewSessionStore(sessions, "services", 50),
			Tracker:     listquery.NewTracker(),
		},
	}
}

// context builds a request context. A non-nil form is sent url-encoded.
func (h *harness) context(method, target string, form url.Values) (*echo.Context, *httptest.ResponseRecorder) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body).WithContext(h.ctx)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	return h.echo.NewContext(req, rec), rec
}

func withParam(c *echo.Context, name, value string) *echo.Context {
	c.SetPathValues(echo.PathValues{{Name: name, Value: value}})
	return c
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %q", rec.Code, want, rec.Body.String())
	}
}

func assertContains(t *testing.T, body string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(body, fragment) {
			t.Fatalf("body missing %q:\n%s", fragment, body)
		}
	}
}
