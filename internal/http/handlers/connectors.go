package handlers

import (
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
	"github.com/ngconsole/ngconsole/internal/http/views"
	"github.com/ngconsole/ngconsole/internal/listquery"
	"github.com/ngconsole/ngconsole/internal/ngclient"
)

const pageConnectors = "connectors"

// HandleConnectors lists the Azure cloud cost connectors of the account.
func (h *Handlers) HandleConnectors(c *echo.Context) error {
	addVary(c, "HX-Request", "HX-Target")
	state := listquery.Parse(c.Request().URL.Query(), listquery.Defaults{Size: h.Cfg.DefaultPageSize}).Normalize()

	ctx, fetch := h.beginFetch(c, pageConnectors)
	defer fetch.done()

	page, err := h.API.ListConnectors(ctx, ngclient.ConnectorFilter{
		Types:      []string{ngclient.ConnectorTypeCEAzure},
		FilterType: ngclient.FilterTypeConnector,
	}, ngclient.PageRequest{PageIndex: state.Page, PageSize: state.Size, SearchTerm: state.SearchTerm})
	if fetch.stale() {
		return discard(c)
	}
	fetch.record(err)

	data := viewmodels.ConnectorsViewData{
		Layout:        h.LayoutData(c, "Cloud cost connectors"),
		SelfHref:      state.URL(views.ConnectorsHref),
		SearchTerm:    state.SearchTerm,
		NewHref:       views.WizardNewHref,
		EmptyStateMsg: "No Azure connectors yet.",
	}
	if state.SearchTerm != "" {
		data.EmptyStateMsg = "No connectors match the current search."
	}
	if err != nil {
		data.Banner = ngclient.ErrorMessage(err, "Could not load connectors.")
	} else {
		for _, item := range page.Content {
			data.Rows = append(data.Rows, connectorRow(item))
		}
		data.Paging = listPaging(state, views.ConnectorsHref, page.TotalItems, page.TotalPages, len(page.Content))
	}

	if isHXTarget(c, views.ConnectorsResultsID) {
		return h.RenderComponent(c, views.ConnectorsResults(data))
	}
	return h.RenderComponent(c, views.ConnectorsPage(data))
}

func connectorRow(item ngclient.ConnectorResponse) viewmodels.ConnectorRow {
	row := viewmodels.ConnectorRow{
		Name:           item.Connector.Name,
		Identifier:     item.Connector.Identifier,
		Status:         "Unknown",
		StatusColor:    viewmodels.ColorGrey,
		LastTestedAt:   viewmodels.FormatTimestamp(0),
		LastModifiedAt: viewmodels.FormatTimestamp(item.LastModifiedAt),
		EditHref:       views.WizardEditHref(item.Connector.Identifier),
	}
	// A spec that does not decode still lists the connector by name.
	if spec, err := item.Connector.DecodeCEAzureSpec(); err == nil {
		row.TenantID = viewmodels.OrDash(spec.TenantID)
		row.SubscriptionID = viewmodels.OrDash(spec.SubscriptionID)
		for _, f := range spec.FeaturesEnabled {
			row.Features = append(row.Features, views.HumanizeIdentifier(strings.ToLower(f)))
		}
	}
	if st := item.Status; st != nil && st.Status != "" {
		row.Status = st.Status
		row.StatusColor = viewmodels.ColorRed
		if strings.EqualFold(st.Status, ngclient.StatusSuccess) {
			row.StatusColor = viewmodels.ColorGreen
		}
		row.LastTestedAt = viewmodels.FormatTimestamp(max(st.LastTestedAt, st.TestedAt))
	}
	return row
}
