package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
	"github.com/ngconsole/ngconsole/internal/http/views"
	"github.com/ngconsole/ngconsole/internal/listquery"
	"github.com/ngconsole/ngconsole/internal/ngclient"
)

const (
	pageMonitored = "monitored_services"

	filterEnvironment = "environment"
)

func (h *Handlers) monitoredDefaults() listquery.Defaults {
	return listquery.Defaults{Size: h.Cfg.DefaultPageSize}
}

// HandleMonitoredServices renders the monitored service list. The search
// form submits searchTerm and environment, which are folded into the list
// state before fetching.
func (h *Handlers) HandleMonitoredServices(c *echo.Context) error {
	addVary(c, "HX-Request", "HX-Target")
	query := c.Request().URL.Query()
	state := listquery.Parse(query, h.monitoredDefaults()).Normalize()
	if query.Has(filterEnvironment) {
		state = state.WithFilters(map[string]string{filterEnvironment: query.Get(filterEnvironment)}).WithSearch(query.Get("searchTerm"))
		canonical := state.URL(views.MonitoredHref)
		if !isHX(c) {
			return redirect(c, canonical)
		}
		setHXPushURL(c, canonical)
	}

	ctx, fetch := h.beginFetch(c, pageMonitored)
	defer fetch.done()

	params := ngclient.ListMonitoredServicesParams{
		Scope:  h.Scope(),
		Page:   state.Page,
		Size:   state.Size,
		Filter: state.SearchTerm,
	}
	if env := state.Filters[filterEnvironment]; env != "" {
		params.EnvironmentIdentifiers = []string{env}
	}
	page, err := h.API.ListMonitoredServices(ctx, params)
	if fetch.stale() {
		return discard(c)
	}
	fetch.record(err)

	data := viewmodels.MonitoredServicesViewData{
		Layout:        h.LayoutData(c, "Monitored services"),
		SelfHref:      state.URL(views.MonitoredHref),
		SearchTerm:    state.SearchTerm,
		Environment:   state.Filters[filterEnvironment],
		EmptyStateMsg: "No monitored services yet.",
	}
	if state.HasFilter() || state.SearchTerm != "" {
		data.EmptyStateMsg = "No monitored services match the current search."
	}
	if err != nil {
		data.Banner = ngclient.ErrorMessage(err, "Could not load monitored services.")
	} else {
		for _, item := range page.Content {
			data.Rows = append(data.Rows, monitoredRow(item, state, len(page.Content)))
		}
		data.Paging = listPaging(state, views.MonitoredHref, page.TotalItems, page.TotalPages, len(page.Content))
	}

	if isHXTarget(c, views.MonitoredResultsID) {
		return h.RenderComponent(c, views.MonitoredServicesResults(data))
	}
	return h.RenderComponent(c, views.MonitoredServicesPage(data))
}

func monitoredRow(item ngclient.MonitoredServiceListItem, state listquery.State, itemsOnPage int) viewmodels.MonitoredServiceRow {
	row := viewmodels.MonitoredServiceRow{
		Name:            item.Name,
		Identifier:      item.Identifier,
		ServiceName:     viewmodels.OrDash(firstNonEmpty(item.ServiceName, item.ServiceRef)),
		EnvironmentName: viewmodels.OrDash(firstNonEmpty(item.EnvironmentName, item.EnvironmentRef)),
		Type:            item.Type,
		Enabled:         item.HealthMonitoringEnabled,
		Tags:            viewmodels.FormatTags(item.Tags),
	}
	var score *int
	if item.CurrentHealthScore != nil {
		score = item.CurrentHealthScore.HealthScore
		row.RiskStatus = item.CurrentHealthScore.RiskStatus
	}
	row.HealthScore = viewmodels.FormatScore(score)
	row.HealthColor = viewmodels.HealthColor(row.RiskStatus, score)
	if item.ChangeSummary != nil {
		row.Changes = item.ChangeSummary.Total.Count
	}

	href := views.MonitoredServiceHref(item.Identifier)
	row.ToggleHref = views.WithQuery(href+"/enabled", state.Values())
	deleteQuery := state.Values()
	deleteQuery.Set(itemsParam, strconv.Itoa(itemsOnPage))
	row.DeleteHref = views.WithQuery(href+"/delete", deleteQuery)
	return row
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// HandleMonitoredServiceToggle turns health monitoring on or off.
func (h *Handlers) HandleMonitoredServiceToggle(c *echo.Context) error {
	identifier := strings.TrimSpace(c.Param("identifier"))
	form, err := formValues(c)
	if err != nil {
		return h.RenderError(c, err)
	}
	_, back := h.listReturn(c, views.MonitoredHref, h.monitoredDefaults())
	enable := ParseBoolForm(form.Get("enable"))
	if err := h.API.SetMonitoredServiceEnabled(c.Request().Context(), h.Scope(), identifier, enable); err != nil {
		toastError(c, "Update failed", ngclient.ErrorMessage(err, "Health monitoring could not be changed."))
		return redirect(c, back)
	}
	state := "disabled"
	if enable {
		state = "enabled"
	}
	toastSuccess(c, "Monitored service updated", fmt.Sprintf("Health monitoring %s for %s.", state, identifier))
	return redirect(c, back)
}

// HandleMonitoredServiceDeleteConfirm renders the confirmation dialog.
func (h *Handlers) HandleMonitoredServiceDeleteConfirm(c *echo.Context) error {
	identifier := strings.TrimSpace(c.Param("identifier"))
	if identifier == "" {
		return RenderNotFound(c)
	}
	_, back := h.listReturn(c, views.MonitoredHref, h.monitoredDefaults())
	return h.renderDeleteConfirm(c, viewmodels.DeleteConfirmViewData{
		Layout:    h.LayoutData(c, "Delete monitored service"),
		Kind:      "monitored service",
		Name:      identifier,
		ActionURL: views.WithQuery(views.MonitoredServiceHref(identifier)+"/delete", c.Request().URL.Query()),
		CancelURL: back,
	})
}

// HandleMonitoredServiceDelete deletes after confirmation and returns to the
// list.
func (h *Handlers) HandleMonitoredServiceDelete(c *echo.Context) error {
	identifier := strings.TrimSpace(c.Param("identifier"))
	form, err := formValues(c)
	if err != nil {
		return h.RenderError(c, err)
	}
	state, back := h.listReturn(c, views.MonitoredHref, h.monitoredDefaults())
	if !ParseBoolForm(form.Get("confirm")) {
		return redirect(c, back)
	}
	if err := h.API.DeleteMonitoredService(c.Request().Context(), h.Scope(), identifier); err != nil {
		toastError(c, "Delete failed", ngclient.ErrorMessage(err, "The monitored service could not be deleted."))
		return redirect(c, back)
	}
	items, _ := strconv.Atoi(c.Request().URL.Query().Get(itemsParam))
	toastSuccess(c, "Monitored service deleted", fmt.Sprintf("Deleted %s.", identifier))
	return redirect(c, state.AfterDelete(items).URL(views.MonitoredHref))
}
