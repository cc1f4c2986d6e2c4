package views

import (
	"context"

	"github.com/a-h/templ"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
)

const MonitoredResultsID = "monitored-services-results"

func MonitoredServicesPage(data viewmodels.MonitoredServicesViewData) templ.Component {
	return Layout(data.Layout, component(func(ctx context.Context, p *printer) {
		p.s(`<header class="page-header"><h1>Monitored services</h1></header>`)
		p.f(`<form class="filters" method="get" action="%s" hx-get="%s" hx-target="#%s" hx-push-url="true" hx-trigger="submit, input changed delay:300ms">`,
			MonitoredHref, MonitoredHref, safe(MonitoredResultsID))
		p.f(`<input type="search" name="searchTerm" value="%s" placeholder="Search monitored services" aria-label="Search monitored services">`, data.SearchTerm)
		p.f(`<input type="text" name="environment" value="%s" placeholder="Environment identifier">`, data.Environment)
		p.s(`<button type="submit">Apply</button></form>`)
		p.render(ctx, MonitoredServicesResults(data))
	}))
}

func MonitoredServicesResults(data viewmodels.MonitoredServicesViewData) templ.Component {
	return component(func(ctx context.Context, p *printer) {
		target := "#" + MonitoredResultsID
		p.f(`<section id="%s" data-self="%s">`, safe(MonitoredResultsID), data.SelfHref)
		p.render(ctx, Banner(data.Banner))
		if len(data.Rows) == 0 {
			p.f(`<p class="empty-state">%s</p></section>`, data.EmptyStateMsg)
			return
		}
		p.s(`<table class="table"><thead><tr><th>Monitored service</th><th>Health</th><th>Changes</th><th>Tags</th><th>Enabled</th><th><span class="sr-only">Actions</span></th></tr></thead><tbody>`)
		for _, row := range data.Rows {
			p.f(`<tr id="monitored-%s">`, row.Identifier)
			p.f(`<td>%s<small>%s · %s</small></td>`, row.Name, row.ServiceName, row.EnvironmentName)
			p.f(`<td><span class="badge badge-%s" title="%s">%s</span></td>`, row.HealthColor, row.RiskStatus, row.HealthScore)
			p.f(`<td>%d</td><td>`, row.Changes)
			tags(p, row.Tags)
			p.s(`</td>`)
			label := "Enable"
			if row.Enabled {
				label = "Disable"
			}
			p.f(`<td><form method="post" action="%s">`, row.ToggleHref)
			csrfInput(p, data.Layout.CSRFToken)
			p.f(`<input type="hidden" name="enable" value="%t"><button type="submit" role="switch" aria-checked="%t">%s</button></form></td>`,
				!row.Enabled, row.Enabled, label)
			p.f(`<td class="row-actions"><a href="%s" hx-get="%s" hx-target="#dialog" hx-push-url="false">Delete</a></td></tr>`, row.DeleteHref, row.DeleteHref)
		}
		p.s(`</tbody></table>`)
		pager(p, data.Paging, target)
		p.s(`</section>`)
	})
}
