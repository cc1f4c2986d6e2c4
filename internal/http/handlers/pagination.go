package handlers

import (
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
	"github.com/ngconsole/ngconsole/internal/listquery"
)

// listPaging builds the pager of a list page from the backend page totals.
func listPaging(state listquery.State, base string, totalItems, totalPages int64, showingCount int) viewmodels.ListPaging {
	pages := int(totalPages)
	if pages < 1 {
		pages = 1
	}
	from, to := showingRange(totalItems, state.Page*state.Size, showingCount)
	paging := viewmodels.ListPaging{
		Page:        state.Page,
		TotalPages:  pages,
		TotalItems:  totalItems,
		ShowingFrom: from,
		ShowingTo:   to,
	}
	if state.Page > 0 {
		paging.PrevHref = state.WithPage(min(state.Page-1, pages-1)).URL(base)
	}
	if state.Page+1 < pages {
		paging.NextHref = state.WithPage(state.Page + 1).URL(base)
	}
	return paging
}

func showingRange(totalCount int64, offset, showingCount int) (int, int) {
	if totalCount <= 0 || showingCount <= 0 {
		return 0, 0
	}
	showingFrom := offset + 1
	showingTo := offset + showingCount
	if int64(showingTo) > totalCount {
		showingTo = int(totalCount)
	}
	return showingFrom, showingTo
}

type sortField struct {
	field string
	label string
}

// sortOptions builds the sortable column headers. Each href toggles the
// direction of its field and returns to the first page.
func sortOptions(state listquery.State, base string, fields []sortField) []viewmodels.SortOption {
	out := make([]viewmodels.SortOption, 0, len(fields))
	for _, f := range fields {
		opt := viewmodels.SortOption{
			Label: f.label,
			Href:  state.ToggleSort(f.field).URL(base),
		}
		if state.Sort.Field == f.field {
			opt.Active = true
			opt.Dir = string(state.Sort.Dir)
		}
		out = append(out, opt)
	}
	return out
}
