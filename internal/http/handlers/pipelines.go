package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/ngconsole/ngconsole/internal/ceazure"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
	"github.com/ngconsole/ngconsole/internal/http/views"
	"github.com/ngconsole/ngconsole/internal/listquery"
	"github.com/ngconsole/ngconsole/internal/ngclient"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	pagePipelines = "pipelines"

	// itemsParam carries the row count of the page a delete was issued from.
	itemsParam = "items"
)

func (h *Handlers) pipelineDefaults() listquery.Defaults {
	return listquery.Defaults{
		Size:       h.Cfg.DefaultPageSize,
		Sort:       listquery.Sort{Field: "lastUpdatedAt", Dir: listquery.DirDesc},
		SortFields: []string{"name", "lastUpdatedAt", "createdAt"},
	}
}

// applyPipelineForm folds a submitted filter form into the state. Choosing a
// saved filter discards the ad-hoc fields.
func applyPipelineForm(state listquery.State, form url.Values) listquery.State {
	if id := strings.TrimSpace(form.Get("filterIdentifier")); id != "" {
		state = state.WithFilterIdentifier(id)
	} else {
		state = state.WithFilters(map[string]string{
			"name":        form.Get("filter_name"),
			"description": form.Get("filter_description"),
			"tags":        form.Get("filter_tags"),
		})
	}
	return state.WithSearch(form.Get("searchTerm"))
}

// pipelineFilter converts ad-hoc filters into the list endpoint body.
func pipelineFilter(filters map[string]string) ngclient.PipelineFilter {
	body := ngclient.PipelineFilter{
		FilterType:  ngclient.FilterTypePipelineSetup,
		Name:        filters["name"],
		Description: filters["description"],
	}
	tags := ceazure.ParseTags(filters["tags"])
	for _, k := range slices.Sorted(maps.Keys(tags)) {
		body.PipelineTags = append(body.PipelineTags, ngclient.NGTag{Key: k, Value: tags[k]})
	}
	return body
}

func (h *Handlers) fetchPipelines(ctx context.Context, state listquery.State) (ngclient.Page[ngclient.PipelineSummary], error) {
	body := pipelineFilter(state.Filters)
	if state.FilterIdentifier != "" {
		saved, err := h.API.GetFilter(ctx, h.Scope(), ngclient.FilterTypePipelineSetup, state.FilterIdentifier)
		if err != nil {
			return ngclient.Page[ngclient.PipelineSummary]{}, err
		}
		body = ngclient.PipelineFilter{}
		if len(saved.FilterProperties) > 0 {
			if err := json.Unmarshal(saved.FilterProperties, &body); err != nil {
				return ngclient.Page[ngclient.PipelineSummary]{}, fmt.Errorf("decode saved filter %s: %w", state.FilterIdentifier, err)
			}
		}
		body.FilterType = ngclient.FilterTypePipelineSetup
	}
	return h.API.ListPipelines(ctx, ngclient.ListPipelinesParams{
		Scope:            h.Scope(),
		SearchTerm:       state.SearchTerm,
		Page:             state.Page,
		Size:             state.Size,
		Sort:             state.SortValues(),
		RepoIdentifier:   state.RepoIdentifier,
		Branch:           state.Branch,
		FilterIdentifier: state.FilterIdentifier,
	}, body)
}

// HandlePipelines renders the pipeline list. The URL query is the list state;
// a submitted filter form is canonicalised into it first.
func (h *Handlers) HandlePipelines(c *echo.Context) error {
	addVary(c, "HX-Request", "HX-Target")
	query := c.Request().URL.Query()
	state := listquery.Parse(query, h.pipelineDefaults()).Normalize()
	if query.Get("apply") != "" {
		state = applyPipelineForm(state, query)
		canonical := state.URL(views.PipelinesHref)
		if !isHX(c) {
			return redirect(c, canonical)
		}
		setHXPushURL(c, canonical)
	}

	ctx, fetch := h.beginFetch(c, pagePipelines)
	defer fetch.done()

	var (
		saved   []ngclient.FilterDTO
		page    ngclient.Page[ngclient.PipelineSummary]
		listErr error
	)
	logger := c.Logger()
	var g errgroup.Group
	g.Go(func() error {
		filters, err := h.API.ListFilters(ctx, h.Scope(), ngclient.FilterTypePipelineSetup)
		if err != nil {
			logger.Warn("list saved pipeline filters", "error", err)
			return nil
		}
		saved = filters.Content
		return nil
	})
	g.Go(func() error {
		page, listErr = h.fetchPipelines(ctx, state)
		return nil
	})
	_ = g.Wait()

	if fetch.stale() {
		return discard(c)
	}
	fetch.record(listErr)

	data := viewmodels.PipelinesViewData{
		Layout:            h.LayoutData(c, "Pipelines"),
		SelfHref:          state.URL(views.PipelinesHref),
		SearchTerm:        state.SearchTerm,
		FilterIdentifier:  state.FilterIdentifier,
		FilterName:        state.Filters["name"],
		FilterDescription: state.Filters["description"],
		FilterTags:        state.Filters["tags"],
		SortOptions:       sortOptions(state, views.PipelinesHref, []sortField{{"name", "Pipeline"}, {"lastUpdatedAt", "Last updated"}}),
		EmptyStateMsg:     "No pipelines yet.",
	}
	if state.HasFilter() || state.SearchTerm != "" {
		data.EmptyStateMsg = "No pipelines match the current search."
	}
	for _, f := range saved {
		data.SavedFilters = append(data.SavedFilters, viewmodels.SavedFilterOption{
			Identifier: f.Identifier,
			Name:       f.Name,
			Selected:   f.Identifier == state.FilterIdentifier,
		})
	}
	if listErr != nil {
		data.Banner = ngclient.ErrorMessage(listErr, "Could not load pipelines.")
	} else {
		for _, p := range page.Content {
			data.Rows = append(data.Rows, pipelineRow(p, state, len(page.Content)))
		}
		data.Paging = listPaging(state, views.PipelinesHref, page.TotalItems, page.TotalPages, len(page.Content))
	}

	if isHXTarget(c, views.PipelinesResultsID) {
		return h.RenderComponent(c, views.PipelinesResults(data))
	}
	return h.RenderComponent(c, views.PipelinesPage(data))
}

func pipelineRow(p ngclient.PipelineSummary, state listquery.State, itemsOnPage int) viewmodels.PipelineRow {
	row := viewmodels.PipelineRow{
		Name:          p.Name,
		Identifier:    p.Identifier,
		Description:   p.Description,
		Tags:          viewmodels.FormatTags(p.Tags),
		Stages:        p.NumOfStages,
		LastStatus:    "Not run",
		StatusColor:   viewmodels.ColorGrey,
		LastRunAt:     viewmodels.FormatTimestamp(0),
		LastUpdatedAt: viewmodels.FormatTimestamp(p.LastUpdatedAt),
		ViewHref:      views.PipelineHref(p.Identifier),
	}
	if info := p.ExecutionSummaryInfo; info != nil && info.LastExecutionStatus != "" {
		row.LastStatus = info.LastExecutionStatus
		row.StatusColor = viewmodels.ExecutionStatusColor(info.LastExecutionStatus)
		row.LastRunAt = viewmodels.FormatTimestamp(info.LastExecutionTs)
	}
	if git := p.GitDetails; git != nil && git.RepoIdentifier != "" {
		row.Repo = git.RepoIdentifier
		if git.Branch != "" {
			row.Repo += " @ " + git.Branch
		}
	}
	returnTo := state.Values()
	row.RunHref = views.WithQuery(row.ViewHref+"/run", returnTo)
	row.CloneHref = views.WithQuery(row.ViewHref+"/clone", returnTo)
	deleteQuery := state.Values()
	deleteQuery.Set(itemsParam, strconv.Itoa(itemsOnPage))
	row.DeleteHref = views.WithQuery(row.ViewHref+"/delete", deleteQuery)
	return row
}

// HandlePipelineShow renders the YAML of one pipeline.
func (h *Handlers) HandlePipelineShow(c *echo.Context) error {
	identifier := strings.TrimSpace(c.Param("identifier"))
	if identifier == "" {
		return RenderNotFound(c)
	}
	detail, err := h.API.GetPipeline(c.Request().Context(), h.Scope(), identifier)
	if err != nil {
		var apiErr *ngclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return RenderNotFound(c)
		}
		toastError(c, "Could not load pipeline", ngclient.ErrorMessage(err, "The pipeline could not be loaded."))
		return redirect(c, views.PipelinesHref)
	}
	name := identifier
	var doc struct {
		Pipeline struct {
			Name string `yaml:"name"`
		} `yaml:"pipeline"`
	}
	if err := yaml.Unmarshal([]byte(detail.YamlPipeline), &doc); err == nil && doc.Pipeline.Name != "" {
		name = doc.Pipeline.Name
	}
	return h.RenderComponent(c, views.PipelineDetailPage(viewmodels.PipelineDetailViewData{
		Layout:     h.LayoutData(c, name),
		Name:       name,
		Identifier: identifier,
		YAML:       detail.YamlPipeline,
		BackHref:   views.PipelinesHref,
		RunHref:    views.PipelineHref(identifier) + "/run",
	}))
}

// listReturn is the list URL an action returns to, taken from the action's
// own query string.
func (h *Handlers) listReturn(c *echo.Context, base string, d listquery.Defaults) (listquery.State, string) {
	state := listquery.Parse(c.Request().URL.Query(), d).Normalize()
	return state, state.URL(base)
}

// HandlePipelineRun starts an execution and returns to the list.
func (h *Handlers) HandlePipelineRun(c *echo.Context) error {
	identifier := strings.TrimSpace(c.Param("identifier"))
	_, back := h.listReturn(c, views.PipelinesHref, h.pipelineDefaults())
	exec, err := h.API.RunPipeline(c.Request().Context(), h.Scope(), identifier, "")
	if err != nil {
		toastError(c, "Run failed", ngclient.ErrorMessage(err, "The pipeline could not be started."))
		return redirect(c, back)
	}
	toastSuccess(c, "Pipeline started", fmt.Sprintf("Execution %s of %s is %s.", exec.PlanExecution.UUID, identifier, strings.ToLower(viewmodels.OrDash(exec.PlanExecution.Status))))
	return redirect(c, back)
}

// HandlePipelineClone copies a pipeline under a new identifier and name.
func (h *Handlers) HandlePipelineClone(c *echo.Context) error {
	identifier := strings.TrimSpace(c.Param("identifier"))
	_, back := h.listReturn(c, views.PipelinesHref, h.pipelineDefaults())
	ctx := c.Request().Context()

	detail, err := h.API.GetPipeline(ctx, h.Scope(), identifier)
	if err != nil {
		toastError(c, "Clone failed", ngclient.ErrorMessage(err, "The pipeline could not be loaded."))
		return redirect(c, back)
	}
	cloneID := identifier + "_clone"
	cloned, name, err := cloneYAML([]byte(detail.YamlPipeline), cloneID)
	if err != nil {
		toastError(c, "Clone failed", "The pipeline definition could not be read.")
		c.Logger().Warn("clone pipeline", "identifier", identifier, "error", err)
		return redirect(c, back)
	}
	if _, err := h.API.CreatePipeline(ctx, h.Scope(), cloned); err != nil {
		toastError(c, "Clone failed", ngclient.ErrorMessage(err, "The cloned pipeline could not be saved."))
		return redirect(c, back)
	}
	toastSuccess(c, "Pipeline cloned", fmt.Sprintf("Created %s.", name))
	return redirect(c, back)
}

// cloneYAML rewrites pipeline.identifier and pipeline.name, keeping the rest
// of the document as written.
func cloneYAML(src []byte, identifier string) ([]byte, string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, "", err
	}
	if len(root.Content) == 0 {
		return nil, "", errors.New("empty pipeline yaml")
	}
	pipeline := mappingValue(root.Content[0], "pipeline")
	if pipeline == nil || pipeline.Kind != yaml.MappingNode {
		return nil, "", errors.New("pipeline yaml has no pipeline mapping")
	}
	idNode := mappingValue(pipeline, "identifier")
	nameNode := mappingValue(pipeline, "name")
	if idNode == nil || nameNode == nil {
		return nil, "", errors.New("pipeline yaml lacks identifier or name")
	}
	idNode.Value = identifier
	nameNode.Value = nameNode.Value + " (clone)"

	out, err := yaml.Marshal(&root)
	if err != nil {
		return nil, "", err
	}
	return out, nameNode.Value, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// HandlePipelineDeleteConfirm renders the confirmation dialog.
func (h *Handlers) HandlePipelineDeleteConfirm(c *echo.Context) error {
	identifier := strings.TrimSpace(c.Param("identifier"))
	if identifier == "" {
		return RenderNotFound(c)
	}
	_, back := h.listReturn(c, views.PipelinesHref, h.pipelineDefaults())
	data := viewmodels.DeleteConfirmViewData{
		Layout:    h.LayoutData(c, "Delete pipeline"),
		Kind:      "pipeline",
		Name:      identifier,
		ActionURL: views.WithQuery(views.PipelineHref(identifier)+"/delete", c.Request().URL.Query()),
		CancelURL: back,
	}
	return h.renderDeleteConfirm(c, data)
}

// renderDeleteConfirm renders the dialog alone for HTMX and as a page
// otherwise.
func (h *Handlers) renderDeleteConfirm(c *echo.Context, data viewmodels.DeleteConfirmViewData) error {
	if isHX(c) {
		return h.RenderComponent(c, views.DeleteConfirm(data))
	}
	return h.RenderComponent(c, views.DeleteConfirmPage(data))
}

// HandlePipelineDelete deletes after confirmation and returns to the list,
// one page back when the deleted row was the last one on its page.
func (h *Handlers) HandlePipelineDelete(c *echo.Context) error {
	identifier := strings.TrimSpace(c.Param("identifier"))
	form, err := formValues(c)
	if err != nil {
		return h.RenderError(c, err)
	}
	state, back := h.listReturn(c, views.PipelinesHref, h.pipelineDefaults())
	if !ParseBoolForm(form.Get("confirm")) {
		return redirect(c, back)
	}
	if err := h.API.DeletePipeline(c.Request().Context(), h.Scope(), identifier); err != nil {
		toastError(c, "Delete failed", ngclient.ErrorMessage(err, "The pipeline could not be deleted."))
		return redirect(c, back)
	}
	items, _ := strconv.Atoi(c.Request().URL.Query().Get(itemsParam))
	toastSuccess(c, "Pipeline deleted", fmt.Sprintf("Deleted %s.", identifier))
	return redirect(c, state.AfterDelete(items).URL(views.PipelinesHref))
}
