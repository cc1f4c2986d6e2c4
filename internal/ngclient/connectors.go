package ngclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

const (
	serviceNG = "ng"

	ConnectorTypeCEAzure = "CEAzure"
	FilterTypeConnector  = "Connector"
)

// ConnectorInfo is the connector object sent to and returned by the connectors API.
type ConnectorInfo struct {
	Name              string            `json:"name"`
	Identifier        string            `json:"identifier"`
	Description       string            `json:"description,omitempty"`
	OrgIdentifier     string            `json:"orgIdentifier,omitempty"`
	ProjectIdentifier string            `json:"projectIdentifier,omitempty"`
	Tags              map[string]string `json:"tags,omitempty"`
	Type              string            `json:"type"`
	Spec              json.RawMessage   `json:"spec"`
}

// CEAzureSpec is the spec of a CEAzure connector.
type CEAzureSpec struct {
	TenantID          string                  `json:"tenantId"`
	SubscriptionID    string                  `json:"subscriptionId"`
	FeaturesEnabled   []string                `json:"featuresEnabled"`
	BillingExportSpec *AzureBillingExportSpec `json:"billingExportSpec,omitempty"`
}

// AzureBillingExportSpec locates a cost export in an Azure storage account.
type AzureBillingExportSpec struct {
	StorageAccountName string `json:"storageAccountName"`
	ContainerName      string `json:"containerName"`
	DirectoryName      string `json:"directoryName"`
	ReportName         string `json:"reportName"`
	SubscriptionID     string `json:"subscriptionId"`
}

// DecodeCEAzureSpec reads the spec of a CEAzure connector.
func (c ConnectorInfo) DecodeCEAzureSpec() (CEAzureSpec, error) {
	var spec CEAzureSpec
	if len(c.Spec) == 0 {
		return spec, nil
	}
	err := json.Unmarshal(c.Spec, &spec)
	return spec, err
}

type ErrorDetail struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ConnectivityStatus struct {
	Status       string        `json:"status"`
	ErrorSummary string        `json:"errorSummary,omitempty"`
	Errors       []ErrorDetail `json:"errors,omitempty"`
	TestedAt     int64         `json:"testedAt,omitempty"`
	LastTestedAt int64         `json:"lastTestedAt,omitempty"`
}

type ConnectorResponse struct {
	Connector      ConnectorInfo       `json:"connector"`
	CreatedAt      int64               `json:"createdAt"`
	LastModifiedAt int64               `json:"lastModifiedAt"`
	Status         *ConnectivityStatus `json:"status,omitempty"`
}

// ConnectorValidationResult is returned by the test connection endpoint.
type ConnectorValidationResult struct {
	Status       string        `json:"status"`
	Errors       []ErrorDetail `json:"errors,omitempty"`
	ErrorSummary string        `json:"errorSummary,omitempty"`
	TestedAt     int64         `json:"testedAt,omitempty"`
}

// Succeeded reports whether the backend validated the connection.
func (r ConnectorValidationResult) Succeeded() bool {
	return strings.EqualFold(r.Status, StatusSuccess)
}

type CCMConnectorFilter struct {
	AzureTenantID       string   `json:"azureTenantId,omitempty"`
	AzureSubscriptionID string   `json:"azureSubscriptionId,omitempty"`
	FeaturesEnabled     []string `json:"featuresEnabled,omitempty"`
}

// ConnectorFilter is the body of the connector list endpoint.
type ConnectorFilter struct {
	Types              []string            `json:"types,omitempty"`
	FilterType         string              `json:"filterType"`
	CCMConnectorFilter *CCMConnectorFilter `json:"ccmConnectorFilter,omitempty"`
}

type connectorRequest struct {
	Connector ConnectorInfo `json:"connector"`
}

func (c *Client) CreateConnector(ctx context.Context, connector ConnectorInfo) (ConnectorResponse, error) {
	return doJSON[ConnectorResponse](ctx, c, call{
		service:   serviceNG,
		operation: "create_connector",
		method:    http.MethodPost,
		path:      "/ng/api/connectors",
		body:      connectorRequest{Connector: connector},
	})
}

func (c *Client) UpdateConnector(ctx context.Context, connector ConnectorInfo) (ConnectorResponse, error) {
	return doJSON[ConnectorResponse](ctx, c, call{
		service:   serviceNG,
		operation: "update_connector",
		method:    http.MethodPut,
		path:      "/ng/api/connectors",
		body:      connectorRequest{Connector: connector},
	})
}

func (c *Client) GetConnector(ctx context.Context, scope Scope, identifier string) (ConnectorResponse, error) {
	q := url.Values{}
	scope.apply(q)
	return doJSON[ConnectorResponse](ctx, c, call{
		service:   serviceNG,
		operation: "get_connector",
		method:    http.MethodGet,
		path:      "/ng/api/connectors/" + url.PathEscape(strings.TrimSpace(identifier)),
		query:     q,
	})
}

func (c *Client) ListConnectors(ctx context.Context, filter ConnectorFilter, page PageRequest) (Page[ConnectorResponse], error) {
	if filter.FilterType == "" {
		filter.FilterType = FilterTypeConnector
	}
	q := url.Values{}
	page.apply(q, "pageIndex", "pageSize")
	return doJSON[Page[ConnectorResponse]](ctx, c, call{
		service:   serviceNG,
		operation: "list_connectors",
		method:    http.MethodPost,
		path:      "/ng/api/connectors/listV2",
		query:     q,
		body:      filter,
		readOnly:  true,
	})
}

func (c *Client) TestConnection(ctx context.Context, scope Scope, identifier string) (ConnectorValidationResult, error) {
	q := url.Values{}
	scope.apply(q)
	return doJSON[ConnectorValidationResult](ctx, c, call{
		service:   serviceNG,
		operation: "test_connection",
		method:    http.MethodPost,
		path:      "/ng/api/connectors/testConnection/" + url.PathEscape(strings.TrimSpace(identifier)),
		query:     q,
		readOnly:  true,
	})
}
