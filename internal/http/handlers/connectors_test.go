package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
	"github.com/ngconsole/ngconsole/internal/ngclient"
)

func azureConnector(identifier string) ngclient.ConnectorResponse {
	return ngclient.ConnectorResponse{
		Connector: ngclient.ConnectorInfo{
			Name:       "Azure prod",
			Identifier: identifier,
			Type:       ngclient.ConnectorTypeCEAzure,
			Spec: json.RawMessage(`{"tenantId":"b229b2bb-5f33-4d22-bce0-730f6474e906","subscriptionId":"e0d1e8a6-7a63-4f4c-9c5e-3d4b4b8f0e11","featuresEnabled":["BILLING","VISIBILITY"]}`),
		},
		LastModifiedAt: 1700000000000,
		Status:         &ngclient.ConnectivityStatus{Status: "SUCCESS", LastTestedAt: 1700000000000},
	}
}

func TestHandleConnectorsListsAzureConnectors(t *testing.T) {
	harness := newHarness(t)
	harness.api.connectors = ngclient.Page[ngclient.ConnectorResponse]{
		TotalItems: 1,
		TotalPages: 1,
		Content:    []ngclient.ConnectorResponse{azureConnector("azure_prod")},
	}

	c, rec := harness.context(http.MethodGet, "/connectors", nil)
	if err := harness.handlers.HandleConnectors(c); err != nil {
		t.Fatalf("HandleConnectors() error = %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(),
		"Azure prod",
		"b229b2bb-5f33-4d22-bce0-730f6474e906",
		"Billing, Visibility",
		"badge-green",
		"/connectors/ce-azure/wizard/edit/azure_prod",
		"/connectors/ce-azure/wizard/new",
	)
}

func TestConnectorRowWithoutStatus(t *testing.T) {
	t.Parallel()

	item := azureConnector("azure_dev")
	item.Status = nil
	item.Connector.Spec = json.RawMessage(`{not json`)
	row := connectorRow(item)
	if row.Status != "Unknown" || row.StatusColor != viewmodels.ColorGrey {
		t.Fatalf("row = %+v", row)
	}
	if row.TenantID != "" || row.Name != "Azure prod" {
		t.Fatalf("row = %+v, want name kept and spec fields empty", row)
	}
}
