package ngclient

import (
	"context"
	"net/http"
	"net/url"
)

type ServiceDTO struct {
	Name              string            `json:"name"`
	Identifier        string            `json:"identifier"`
	Description       string            `json:"description,omitempty"`
	OrgIdentifier     string            `json:"orgIdentifier,omitempty"`
	ProjectIdentifier string            `json:"projectIdentifier,omitempty"`
	Tags              map[string]string `json:"tags,omitempty"`
}

type ServiceResponse struct {
	Service        ServiceDTO `json:"service"`
	CreatedAt      int64      `json:"createdAt,omitempty"`
	LastModifiedAt int64      `json:"lastModifiedAt,omitempty"`
}

func (c *Client) ListServices(ctx context.Context, scope Scope, page PageRequest) (Page[ServiceResponse], error) {
	q := url.Values{}
	scope.apply(q)
	page.apply(q, "page", "size")
	return doJSON[Page[ServiceResponse]](ctx, c, call{
		service:   serviceNG,
		operation: "list_services",
		method:    http.MethodGet,
		path:      "/ng/api/servicesV2",
		query:     q,
	})
}

func (c *Client) CreateService(ctx context.Context, service ServiceDTO) (ServiceResponse, error) {
	return doJSON[ServiceResponse](ctx, c, call{
		service:   serviceNG,
		operation: "create_service",
		method:    http.MethodPost,
		path:      "/ng/api/servicesV2",
		body:      service,
	})
}
