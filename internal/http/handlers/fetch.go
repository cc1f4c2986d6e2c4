package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/ngconsole/ngconsole/internal/listquery"
	"github.com/ngconsole/ngconsole/internal/metrics"
)

// listFetch is one list fetch. HTMX fetches are tracked: a newer one for the
// same page in the same session cancels it, and its response is discarded.
// Full page loads are never tracked, so each browser tab gets its page.
type listFetch struct {
	page   string
	ticket *listquery.Ticket
}

func (h *Handlers) beginFetch(c *echo.Context, page string) (context.Context, *listFetch) {
	ctx := c.Request().Context()
	if !isHX(c) {
		return ctx, &listFetch{page: page}
	}
	fetchCtx, ticket := h.Tracker.Begin(ctx, h.clientKey(ctx)+":"+page)
	return fetchCtx, &listFetch{page: page, ticket: ticket}
}

func (f *listFetch) done() {
	if f.ticket != nil {
		f.ticket.Done()
	}
}

// stale reports whether a newer fetch superseded this one.
func (f *listFetch) stale() bool {
	if f.ticket == nil || f.ticket.Latest() {
		return false
	}
	metrics.ListFetchesTotal.WithLabelValues(f.page, "stale").Inc()
	return true
}

func (f *listFetch) record(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ListFetchesTotal.WithLabelValues(f.page, outcome).Inc()
}

// discard answers a superseded fetch without a body so HTMX keeps the
// fresher content already swapped in.
func discard(c *echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}
