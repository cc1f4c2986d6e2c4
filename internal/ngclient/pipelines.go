package ngclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	servicePipeline = "pipeline"

	FilterTypePipelineSetup = "PipelineSetup"
)

type NGTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type GitDetails struct {
	RepoIdentifier string `json:"repoIdentifier,omitempty"`
	RepoName       string `json:"repoName,omitempty"`
	Branch         string `json:"branch,omitempty"`
	FilePath       string `json:"filePath,omitempty"`
}

type ExecutionSummaryInfo struct {
	LastExecutionStatus string  `json:"lastExecutionStatus,omitempty"`
	LastExecutionTs     int64   `json:"lastExecutionTs,omitempty"`
	LastExecutionID     string  `json:"lastExecutionId,omitempty"`
	Deployments         []int64 `json:"deployments,omitempty"`
}

// PipelineSummary is one row of the pipeline list endpoint.
type PipelineSummary struct {
	Name                 string                `json:"name"`
	Identifier           string                `json:"identifier"`
	Description          string                `json:"description,omitempty"`
	Tags                 map[string]string     `json:"tags,omitempty"`
	Version              int64                 `json:"version,omitempty"`
	NumOfStages          int64                 `json:"numOfStages,omitempty"`
	CreatedAt            int64                 `json:"createdAt,omitempty"`
	LastUpdatedAt        int64                 `json:"lastUpdatedAt,omitempty"`
	Modules              []string              `json:"modules,omitempty"`
	StageNames           []string              `json:"stageNames,omitempty"`
	StoreType            string                `json:"storeType,omitempty"`
	ExecutionSummaryInfo *ExecutionSummaryInfo `json:"executionSummaryInfo,omitempty"`
	GitDetails           *GitDetails           `json:"gitDetails,omitempty"`
}

// PipelineFilter is the body of the pipeline list endpoint.
type PipelineFilter struct {
	FilterType   string  `json:"filterType"`
	Name         string  `json:"name,omitempty"`
	Description  string  `json:"description,omitempty"`
	PipelineTags []NGTag `json:"pipelineTags,omitempty"`
}

type ListPipelinesParams struct {
	Scope            Scope
	SearchTerm       string
	Page             int
	Size             int
	Sort             []string
	RepoIdentifier   string
	Branch           string
	FilterIdentifier string
}

type PipelineDetail struct {
	YamlPipeline string      `json:"yamlPipeline"`
	Modules      []string    `json:"modules,omitempty"`
	GitDetails   *GitDetails `json:"gitDetails,omitempty"`
}

type PipelineCreated struct {
	Identifier string `json:"identifier"`
}

type PlanExecution struct {
	UUID   string `json:"uuid"`
	Status string `json:"status"`
}

type PipelineExecution struct {
	PlanExecution PlanExecution `json:"planExecution"`
}

// FilterDTO is a saved, server-persisted list filter.
type FilterDTO struct {
	Name              string          `json:"name"`
	Identifier        string          `json:"identifier"`
	OrgIdentifier     string          `json:"orgIdentifier,omitempty"`
	ProjectIdentifier string          `json:"projectIdentifier,omitempty"`
	FilterProperties  json.RawMessage `json:"filterProperties"`
	FilterVisibility  string          `json:"filterVisibility,omitempty"`
}

func (c *Client) ListPipelines(ctx context.Context, params ListPipelinesParams, filter PipelineFilter) (Page[PipelineSummary], error) {
	if filter.FilterType == "" {
		filter.FilterType = FilterTypePipelineSetup
	}
	q := url.Values{}
	params.Scope.apply(q)
	PageRequest{PageIndex: params.Page, PageSize: params.Size, SearchTerm: params.SearchTerm}.apply(q, "page", "size")
	for _, s := range params.Sort {
		if s = strings.TrimSpace(s); s != "" {
			q.Add("sort", s)
		}
	}
	if v := strings.TrimSpace(params.RepoIdentifier); v != "" {
		q.Set("repoIdentifier", v)
	}
	if v := strings.TrimSpace(params.Branch); v != "" {
		q.Set("branch", v)
	}
	if v := strings.TrimSpace(params.FilterIdentifier); v != "" {
		q.Set("filterIdentifier", v)
	}
	return doJSON[Page[PipelineSummary]](ctx, c, call{
		service:   servicePipeline,
		operation: "list_pipelines",
		method:    http.MethodPost,
		path:      "/pipeline/api/pipelines/list",
		query:     q,
		body:      filter,
		readOnly:  true,
	})
}

func (c *Client) GetPipeline(ctx context.Context, scope Scope, identifier string) (PipelineDetail, error) {
	q := url.Values{}
	scope.apply(q)
	return doJSON[PipelineDetail](ctx, c, call{
		service:   servicePipeline,
		operation: "get_pipeline",
		method:    http.MethodGet,
		path:      "/pipeline/api/pipelines/" + url.PathEscape(strings.TrimSpace(identifier)),
		query:     q,
	})
}

// CreatePipeline stores a pipeline from its YAML definition.
func (c *Client) CreatePipeline(ctx context.Context, scope Scope, yamlPipeline []byte) (PipelineCreated, error) {
	q := url.Values{}
	scope.apply(q)
	return doJSON[PipelineCreated](ctx, c, call{
		service:     servicePipeline,
		operation:   "create_pipeline",
		method:      http.MethodPost,
		path:        "/pipeline/api/pipelines/v2",
		query:       q,
		rawBody:     yamlPipeline,
		contentType: "application/yaml",
	})
}

func (c *Client) DeletePipeline(ctx context.Context, scope Scope, identifier string) error {
	q := url.Values{}
	scope.apply(q)
	deleted, err := doJSON[bool](ctx, c, call{
		service:   servicePipeline,
		operation: "delete_pipeline",
		method:    http.MethodDelete,
		path:      "/pipeline/api/pipelines/" + url.PathEscape(strings.TrimSpace(identifier)),
		query:     q,
	})
	if err != nil {
		return err
	}
	if !deleted {
		return &APIError{StatusCode: http.StatusOK, Message: fmt.Sprintf("pipeline %s was not deleted", identifier)}
	}
	return nil
}

func (c *Client) RunPipeline(ctx context.Context, scope Scope, identifier, moduleType string) (PipelineExecution, error) {
	q := url.Values{}
	scope.apply(q)
	if moduleType = strings.TrimSpace(moduleType); moduleType != "" {
		q.Set("moduleType", moduleType)
	}
	return doJSON[PipelineExecution](ctx, c, call{
		service:     servicePipeline,
		operation:   "run_pipeline",
		method:      http.MethodPost,
		path:        "/pipeline/api/pipeline/execute/" + url.PathEscape(strings.TrimSpace(identifier)),
		query:       q,
		rawBody:     []byte{},
		contentType: "application/yaml",
	})
}

func (c *Client) GetFilter(ctx context.Context, scope Scope, filterType, identifier string) (FilterDTO, error) {
	q := url.Values{}
	scope.apply(q)
	q.Set("type", filterType)
	return doJSON[FilterDTO](ctx, c, call{
		service:   serviceNG,
		operation: "get_filter",
		method:    http.MethodGet,
		path:      "/ng/api/filters/" + url.PathEscape(strings.TrimSpace(identifier)),
		query:     q,
	})
}

func (c *Client) ListFilters(ctx context.Context, scope Scope, filterType string) (Page[FilterDTO], error) {
	q := url.Values{}
	scope.apply(q)
	q.Set("type", filterType)
	return doJSON[Page[FilterDTO]](ctx, c, call{
		service:   serviceNG,
		operation: "list_filters",
		method:    http.MethodGet,
		path:      "/ng/api/filters",
		query:     q,
	})
}
