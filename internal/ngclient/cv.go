package ngclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const serviceCV = "cv"

type RiskData struct {
	HealthScore *int   `json:"healthScore,omitempty"`
	RiskStatus  string `json:"riskStatus,omitempty"`
}

type ChangeCount struct {
	Count int `json:"count"`
}

type ChangeSummary struct {
	Total ChangeCount `json:"total"`
}

// MonitoredServiceListItem is one row of the monitored service list endpoint.
type MonitoredServiceListItem struct {
	Name                    string            `json:"name"`
	Identifier              string            `json:"identifier"`
	ServiceRef              string            `json:"serviceRef"`
	EnvironmentRef          string            `json:"environmentRef"`
	ServiceName             string            `json:"serviceName,omitempty"`
	EnvironmentName         string            `json:"environmentName,omitempty"`
	Type                    string            `json:"type,omitempty"`
	HealthMonitoringEnabled bool              `json:"healthMonitoringEnabled"`
	CurrentHealthScore      *RiskData         `json:"currentHealthScore,omitempty"`
	ChangeSummary           *ChangeSummary    `json:"changeSummary,omitempty"`
	Tags                    map[string]string `json:"tags,omitempty"`
}

type ListMonitoredServicesParams struct {
	Scope                  Scope
	Page                   int
	Size                   int
	Filter                 string
	EnvironmentIdentifiers []string
}

func (c *Client) ListMonitoredServices(ctx context.Context, params ListMonitoredServicesParams) (Page[MonitoredServiceListItem], error) {
	q := url.Values{}
	params.Scope.apply(q)
	PageRequest{PageIndex: params.Page, PageSize: params.Size}.apply(q, "offset", "pageSize")
	if v := strings.TrimSpace(params.Filter); v != "" {
		q.Set("filter", v)
	}
	for _, env := range params.EnvironmentIdentifiers {
		if env = strings.TrimSpace(env); env != "" {
			q.Add("environmentIdentifiers", env)
		}
	}
	return doJSON[Page[MonitoredServiceListItem]](ctx, c, call{
		service:   serviceCV,
		operation: "list_monitored_services",
		method:    http.MethodGet,
		path:      "/cv/api/monitored-service/list",
		query:     q,
	})
}

func (c *Client) DeleteMonitoredService(ctx context.Context, scope Scope, identifier string) error {
	q := url.Values{}
	scope.apply(q)
	deleted, err := doJSON[bool](ctx, c, call{
		service:   serviceCV,
		operation: "delete_monitored_service",
		method:    http.MethodDelete,
		path:      "/cv/api/monitored-service/" + url.PathEscape(strings.TrimSpace(identifier)),
		query:     q,
	})
	if err != nil {
		return err
	}
	if !deleted {
		return &APIError{StatusCode: http.StatusOK, Message: fmt.Sprintf("monitored service %s was not deleted", identifier)}
	}
	return nil
}

func (c *Client) SetMonitoredServiceEnabled(ctx context.Context, scope Scope, identifier string, enabled bool) error {
	q := url.Values{}
	scope.apply(q)
	q.Set("enable", strconv.FormatBool(enabled))
	_, err := doJSON[map[string]any](ctx, c, call{
		service:   serviceCV,
		operation: "set_monitored_service_enabled",
		method:    http.MethodPut,
		path:      "/cv/api/monitored-service/" + url.PathEscape(strings.TrimSpace(identifier)) + "/health-monitoring-flag",
		query:     q,
	})
	return err
}
