package views

import (
	"context"
	"strings"

	"github.com/a-h/templ"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
)

var navItems = []struct {
	Href  string
	Label string
}{
	{PipelinesHref, "Pipelines"},
	{MonitoredHref, "Monitored services"},
	{ConnectorsHref, "Cloud cost connectors"},
	{DeployStageHref, "Deploy stage"},
}

// Layout wraps body in the application shell. Every HTMX request carries the
// CSRF token header.
func Layout(data viewmodels.LayoutData, body templ.Component) templ.Component {
	return component(func(ctx context.Context, p *printer) {
		title := "ngconsole"
		if t := strings.TrimSpace(data.Title); t != "" {
			title = t + " · ngconsole"
		}
		p.f(`<!doctype html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title>`, title)
		p.s(`<link rel="stylesheet" href="/static/app.css"><script src="https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js" defer></script></head>`)
		p.f(`<body hx-boost="true" hx-headers='{"X-CSRF-Token": "%s"}'>`, data.CSRFToken)
		p.s(`<nav class="sidebar"><ul>`)
		for _, item := range navItems {
			active := strings.HasPrefix(data.ActivePath, item.Href)
			p.f(`<li><a href="%s"%s>%s</a></li>`, item.Href, attrIf(active, `aria-current="page"`), item.Label)
		}
		p.s(`</ul>`)
		if data.AccountID != "" {
			p.f(`<p class="account">Account %s</p>`, data.AccountID)
		}
		p.s(`</nav>`)
		if data.Toast != nil {
			p.render(ctx, Toast(*data.Toast))
		}
		p.s(`<main id="main">`)
		p.render(ctx, body)
		p.s(`</main><div id="dialog"></div></body></html>`)
	})
}

func Toast(t viewmodels.ToastViewData) templ.Component {
	return component(func(ctx context.Context, p *printer) {
		p.f(`<div class="toast toast-%s" role="status"><strong>%s</strong>`, t.Category, t.Title)
		if t.Description != "" {
			p.f(`<p>%s</p>`, t.Description)
		}
		p.s(`</div>`)
	})
}

// Banner is the dismissible error shown above a form or table.
func Banner(message string) templ.Component {
	return component(func(ctx context.Context, p *printer) {
		if strings.TrimSpace(message) == "" {
			return
		}
		p.f(`<div class="alert alert-error" role="alert"><p>%s</p><button type="button" class="alert-dismiss" onclick="this.parentElement.remove()">Dismiss</button></div>`, message)
	})
}

func pager(p *printer, paging viewmodels.ListPaging, target string) {
	p.f(`<nav class="pager" aria-label="Pagination"><span>Showing %d-%d of %d</span>`, paging.ShowingFrom, paging.ShowingTo, paging.TotalItems)
	if paging.PrevHref != "" {
		p.f(`<a rel="prev" href="%s" hx-get="%s" hx-target="%s" hx-push-url="true">Previous</a>`, paging.PrevHref, paging.PrevHref, target)
	}
	p.f(`<span>Page %d of %d</span>`, paging.Page+1, max(paging.TotalPages, 1))
	if paging.NextHref != "" {
		p.f(`<a rel="next" href="%s" hx-get="%s" hx-target="%s" hx-push-url="true">Next</a>`, paging.NextHref, paging.NextHref, target)
	}
	p.s(`</nav>`)
}

func tags(p *printer, values []string) {
	if len(values) == 0 {
		return
	}
	p.s(`<ul class="tags">`)
	for _, v := range values {
		p.f(`<li>%s</li>`, v)
	}
	p.s(`</ul>`)
}

func fieldError(p *printer, errs map[string]string, field string) {
	if msg := errs[field]; msg != "" {
		p.f(`<p class="field-error" id="%s-error">%s</p>`, field, msg)
	}
}

func csrfInput(p *printer, token string) {
	if token != "" {
		p.f(`<input type="hidden" name="csrf" value="%s">`, token)
	}
}

func postButton(p *printer, action, token, label string) {
	p.f(`<form method="post" action="%s">`, action)
	csrfInput(p, token)
	p.f(`<button type="submit">%s</button></form>`, label)
}
