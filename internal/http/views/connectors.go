package views

import (
	"context"
	"strings"

	"github.com/a-h/templ"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
)

const ConnectorsResultsID = "connectors-results"

func ConnectorsPage(data viewmodels.ConnectorsViewData) templ.Component {
	return Layout(data.Layout, component(func(ctx context.Context, p *printer) {
		p.f(`<header class="page-header"><h1>Cloud cost connectors</h1><a class="btn btn-primary" href="%s">New Azure connector</a></header>`, data.NewHref)
		p.f(`<form class="filters" method="get" action="%s" hx-get="%s" hx-target="#%s" hx-push-url="true" hx-trigger="submit, input changed delay:300ms">`,
			ConnectorsHref, ConnectorsHref, safe(ConnectorsResultsID))
		p.f(`<input type="search" name="searchTerm" value="%s" placeholder="Search connectors" aria-label="Search connectors"></form>`, data.SearchTerm)
		p.render(ctx, ConnectorsResults(data))
	}))
}

func ConnectorsResults(data viewmodels.ConnectorsViewData) templ.Component {
	return component(func(ctx context.Context, p *printer) {
		p.f(`<section id="%s" data-self="%s">`, safe(ConnectorsResultsID), data.SelfHref)
		p.render(ctx, Banner(data.Banner))
		if len(data.Rows) == 0 {
			p.f(`<p class="empty-state">%s</p></section>`, data.EmptyStateMsg)
			return
		}
		p.s(`<table class="table"><thead><tr><th>Connector</th><th>Tenant / subscription</th><th>Features</th><th>Status</th><th>Last modified</th><th><span class="sr-only">Actions</span></th></tr></thead><tbody>`)
		for _, row := range data.Rows {
			p.f(`<tr id="connector-%s"><td>%s<small>%s</small></td>`, row.Identifier, row.Name, row.Identifier)
			p.f(`<td>%s<small>%s</small></td>`, row.TenantID, row.SubscriptionID)
			p.f(`<td>%s</td>`, strings.Join(row.Features, ", "))
			p.f(`<td><span class="badge badge-%s">%s</span><small>%s</small></td>`, row.StatusColor, row.Status, row.LastTestedAt)
			p.f(`<td>%s</td>`, row.LastModifiedAt)
			p.f(`<td class="row-actions"><a href="%s">Edit</a></td></tr>`, row.EditHref)
		}
		p.s(`</tbody></table>`)
		pager(p, data.Paging, "#"+ConnectorsResultsID)
		p.s(`</section>`)
	})
}
