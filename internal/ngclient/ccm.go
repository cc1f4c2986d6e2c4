package ngclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const serviceCCM = "ccm"

// ListAzureBillingExports returns the billing exports already known for a tenant.
func (c *Client) ListAzureBillingExports(ctx context.Context, tenantID, subscriptionID string) ([]AzureBillingExportSpec, error) {
	q := url.Values{}
	q.Set("tenantId", strings.TrimSpace(tenantID))
	if v := strings.TrimSpace(subscriptionID); v != "" {
		q.Set("subscriptionId", v)
	}
	return doJSON[[]AzureBillingExportSpec](ctx, c, call{
		service:   serviceCCM,
		operation: "list_azure_billing_exports",
		method:    http.MethodGet,
		path:      "/ccm/api/azure/billing-exports",
		query:     q,
	})
}

// GetAzureAppClientID returns the application id of the platform's multi-tenant Azure app.
func (c *Client) GetAzureAppClientID(ctx context.Context) (string, error) {
	id, err := doJSON[string](ctx, c, call{
		service:   serviceCCM,
		operation: "get_azure_app_client_id",
		method:    http.MethodGet,
		path:      "/ccm/api/azureappclientid",
	})
	return strings.TrimSpace(id), err
}
