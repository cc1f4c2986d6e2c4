package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/ngconsole/ngconsole/internal/ngclient"
)

func TestHandleMonitoredServicesRendersHealth(t *testing.T) {
	harness := newHarness(t)
	score := 42
	harness.api.monitored = ngclient.Page[ngclient.MonitoredServiceListItem]{
		TotalItems: 1,
		TotalPages: 1,
		Content: []ngclient.MonitoredServiceListItem{{
			Name:                    "checkout_prod",
			Identifier:              "checkout_prod",
			ServiceRef:              "checkout",
			EnvironmentName:         "Production",
			HealthMonitoringEnabled: true,
			CurrentHealthScore:      &ngclient.RiskData{HealthScore: &score, RiskStatus: "NEED_ATTENTION"},
			ChangeSummary:           &ngclient.ChangeSummary{Total: ngclient.ChangeCount{Count: 3}},
		}},
	}

	c, rec := harness.context(http.MethodGet, "/monitored-services", nil)
	if err := harness.handlers.HandleMonitoredServices(c); err != nil {
		t.Fatalf("HandleMonitoredServices() error = %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(),
		`id="monitored-services-results"`,
		`badge-orange`,
		`>42<`,
		`checkout · Production`,
		`name="enable" value="false"`,
		`/monitored-services/checkout_prod/delete?`,
	)
}

func TestHandleMonitoredServicesEnvironmentFilter(t *testing.T) {
	harness := newHarness(t)

	c, rec := harness.context(http.MethodGet, "/monitored-services?searchTerm=pay&environment=prod&page=3", nil)
	if err := harness.handlers.HandleMonitoredServices(c); err != nil {
		t.Fatalf("HandleMonitoredServices() error = %v", err)
	}
	assertStatus(t, rec, http.StatusSeeOther)
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	q := loc.Query()
	if q.Has(filterEnvironment) || q.Get("page") != "0" || q.Get("searchTerm") != "pay" || q.Get("filters") != `{"environment":"prod"}` {
		t.Fatalf("location query = %v", q)
	}
}

func TestHandleMonitoredServiceToggle(t *testing.T) {
	harness := newHarness(t)

	c, rec := harness.context(http.MethodPost, "/monitored-services/checkout_prod/enabled?page=0&size=20", url.Values{"enable": {"false"}})
	if err := harness.handlers.HandleMonitoredServiceToggle(withParam(c, "identifier", "checkout_prod")); err != nil {
		t.Fatalf("HandleMonitoredServiceToggle() error = %v", err)
	}
	assertStatus(t, rec, http.StatusSeeOther)
	enabled, ok := harness.api.toggled["checkout_prod"]
	if !ok || enabled {
		t.Fatalf("toggled = %v", harness.api.toggled)
	}
}

func TestHandleMonitoredServiceDeleteKeepsPage(t *testing.T) {
	harness := newHarness(t)

	c, rec := harness.context(http.MethodPost, "/monitored-services/checkout_prod/delete?page=2&size=20&items=5", url.Values{"confirm": {"true"}})
	c.Request().Header.Set("HX-Request", "true")
	if err := harness.handlers.HandleMonitoredServiceDelete(withParam(c, "identifier", "checkout_prod")); err != nil {
		t.Fatalf("HandleMonitoredServiceDelete() error = %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
	loc, _ := url.Parse(rec.Header().Get("HX-Redirect"))
	if loc.Path != "/monitored-services" || loc.Query().Get("page") != "2" {
		t.Fatalf("HX-Redirect = %q", rec.Header().Get("HX-Redirect"))
	}
	if len(harness.api.deleted) != 1 {
		t.Fatalf("deleted = %v", harness.api.deleted)
	}
}
