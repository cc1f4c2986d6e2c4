package views

import (
	"context"

	"github.com/a-h/templ"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
)

const PipelinesResultsID = "pipelines-results"

func PipelinesPage(data viewmodels.PipelinesViewData) templ.Component {
	return Layout(data.Layout, component(func(ctx context.Context, p *printer) {
		p.s(`<header class="page-header"><h1>Pipelines</h1></header>`)
		p.f(`<form class="filters" method="get" action="%s" hx-get="%s" hx-target="#%s" hx-push-url="true" hx-trigger="submit, input changed delay:300ms from:input[name=searchTerm]">`,
			PipelinesHref, PipelinesHref, safe(PipelinesResultsID))
		p.s(`<input type="hidden" name="apply" value="1">`)
		p.f(`<input type="search" name="searchTerm" value="%s" placeholder="Search pipelines" aria-label="Search pipelines">`, data.SearchTerm)
		p.s(`<select name="filterIdentifier" aria-label="Saved filter"><option value="">Ad-hoc filter</option>`)
		for _, f := range data.SavedFilters {
			p.f(`<option value="%s"%s>%s</option>`, f.Identifier, attrIf(f.Selected, "selected"), f.Name)
		}
		p.s(`</select>`)
		p.f(`<input type="text" name="filter_name" value="%s" placeholder="Name">`, data.FilterName)
		p.f(`<input type="text" name="filter_description" value="%s" placeholder="Description">`, data.FilterDescription)
		p.f(`<input type="text" name="filter_tags" value="%s" placeholder="Tags (key:value, ...)">`, data.FilterTags)
		p.s(`<button type="submit">Apply</button></form>`)
		p.render(ctx, PipelinesResults(data))
	}))
}

// PipelinesResults is the table fragment swapped on every query change.
func PipelinesResults(data viewmodels.PipelinesViewData) templ.Component {
	return component(func(ctx context.Context, p *printer) {
		target := "#" + PipelinesResultsID
		p.f(`<section id="%s" data-self="%s">`, safe(PipelinesResultsID), data.SelfHref)
		p.render(ctx, Banner(data.Banner))
		if len(data.Rows) == 0 {
			p.f(`<p class="empty-state">%s</p></section>`, data.EmptyStateMsg)
			return
		}
		p.s(`<table class="table"><thead><tr>`)
		for _, opt := range data.SortOptions {
			p.f(`<th><a href="%s" hx-get="%s" hx-target="%s" hx-push-url="true"%s>%s</a></th>`,
				opt.Href, opt.Href, target, attrIf(opt.Active, `data-dir="`+opt.Dir+`"`), opt.Label)
		}
		p.s(`<th>Stages</th><th>Last run</th><th>Tags</th><th><span class="sr-only">Actions</span></th></tr></thead><tbody>`)
		for _, row := range data.Rows {
			p.f(`<tr id="pipeline-%s">`, row.Identifier)
			p.f(`<td><a href="%s">%s</a><small>%s</small>`, row.ViewHref, row.Name, row.Identifier)
			if row.Repo != "" {
				p.f(`<small class="repo">%s</small>`, row.Repo)
			}
			p.s(`</td>`)
			p.f(`<td>%s</td>`, row.LastUpdatedAt)
			p.f(`<td>%d</td>`, row.Stages)
			p.f(`<td><span class="badge badge-%s">%s</span> %s</td>`, row.StatusColor, row.LastStatus, row.LastRunAt)
			p.s(`<td>`)
			tags(p, row.Tags)
			p.s(`</td><td class="row-actions">`)
			p.f(`<a href="%s">View</a>`, row.ViewHref)
			postButton(p, row.RunHref, data.Layout.CSRFToken, "Run")
			postButton(p, row.CloneHref, data.Layout.CSRFToken, "Clone")
			p.f(`<a href="%s" hx-get="%s" hx-target="#dialog" hx-push-url="false">Delete</a>`, row.DeleteHref, row.DeleteHref)
			p.s(`</td></tr>`)
		}
		p.s(`</tbody></table>`)
		pager(p, data.Paging, target)
		p.s(`</section>`)
	})
}

func PipelineDetailPage(data viewmodels.PipelineDetailViewData) templ.Component {
	return Layout(data.Layout, component(func(ctx context.Context, p *printer) {
		p.f(`<header class="page-header"><a href="%s">Pipelines</a><h1>%s</h1><small>%s</small>`, data.BackHref, data.Name, data.Identifier)
		postButton(p, data.RunHref, data.Layout.CSRFToken, "Run")
		p.s(`</header>`)
		p.f(`<pre class="yaml"><code>%s</code></pre>`, data.YAML)
	}))
}

// DeleteConfirm is the confirmation dialog of a row delete. The delete only
// happens when the dialog form is submitted with confirm=true.
func DeleteConfirm(data viewmodels.DeleteConfirmViewData) templ.Component {
	return component(func(ctx context.Context, p *printer) {
		p.f(`<dialog open class="dialog" aria-labelledby="confirm-title"><h2 id="confirm-title">Delete %s?</h2>`, data.Kind)
		p.f(`<p>Delete <strong>%s</strong>? This cannot be undone.</p>`, data.Name)
		p.f(`<form method="post" action="%s">`, data.ActionURL)
		csrfInput(p, data.Layout.CSRFToken)
		p.s(`<input type="hidden" name="confirm" value="true">`)
		p.f(`<a href="%s" class="btn">Cancel</a><button type="submit" class="btn btn-danger">Delete</button></form></dialog>`, data.CancelURL)
	})
}

func DeleteConfirmPage(data viewmodels.DeleteConfirmViewData) templ.Component {
	return Layout(data.Layout, DeleteConfirm(data))
}
