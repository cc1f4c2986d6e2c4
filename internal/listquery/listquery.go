// Package listquery holds the query state of list pages (paging, sorting,
// search and filters) and its URL representation.
package listquery

import (
	"encoding/json"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

type Direction string

const (
	DirAsc  Direction = "ASC"
	DirDesc Direction = "DESC"

	defaultSize = 20
	maxSize     = 100
)

func ParseDirection(raw string) (Direction, bool) {
	switch Direction(strings.ToUpper(strings.TrimSpace(raw))) {
	case DirAsc:
		return DirAsc, true
	case DirDesc:
		return DirDesc, true
	default:
		return "", false
	}
}

type Sort struct {
	Field string
	Dir   Direction
}

// Defaults apply when the URL does not carry a value.
type Defaults struct {
	Size int
	Sort Sort
	// SortFields restricts sorting to known fields when set.
	SortFields []string
}

// State is the query of one list page. FilterIdentifier and Filters are
// mutually exclusive once normalized.
type State struct {
	Page             int
	Size             int
	Sort             Sort
	SearchTerm       string
	FilterIdentifier string
	Filters          map[string]string
	RepoIdentifier   string
	Branch           string
}

// Parse reads the state from URL query values.
func Parse(values url.Values, d Defaults) State {
	if d.Size < 1 {
		d.Size = defaultSize
	}
	s := State{
		Page:             0,
		Size:             d.Size,
		Sort:             d.Sort,
		SearchTerm:       strings.TrimSpace(values.Get("searchTerm")),
		FilterIdentifier: strings.TrimSpace(values.Get("filterIdentifier")),
		RepoIdentifier:   strings.TrimSpace(values.Get("repoIdentifier")),
		Branch:           strings.TrimSpace(values.Get("branch")),
	}
	if n, err := strconv.Atoi(strings.TrimSpace(values.Get("page"))); err == nil && n >= 0 {
		s.Page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(values.Get("size"))); err == nil && n > 0 {
		s.Size = min(n, maxSize)
	}
	if sort, ok := parseSort(values["sort"], d); ok {
		s.Sort = sort
	}
	if raw := strings.TrimSpace(values.Get("filters")); raw != "" {
		var filters map[string]string
		if err := json.Unmarshal([]byte(raw), &filters); err == nil {
			s.Filters = filters
		}
	}
	return s.Normalize()
}

// parseSort accepts the repeated form (sort=field&sort=DESC) and the joined
// form (sort=field,DESC).
func parseSort(raw []string, d Defaults) (Sort, bool) {
	var parts []string
	for _, v := range raw {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
	}
	if len(parts) == 0 {
		return Sort{}, false
	}
	field := parts[0]
	if len(d.SortFields) > 0 && !slices.Contains(d.SortFields, field) {
		return Sort{}, false
	}
	dir := d.Sort.Dir
	if dir == "" {
		dir = DirDesc
	}
	if len(parts) > 1 {
		if parsed, ok := ParseDirection(parts[1]); ok {
			dir = parsed
		}
	}
	return Sort{Field: field, Dir: dir}, true
}

// Values encodes the state as URL query values.
func (s State) Values() url.Values {
	s = s.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(s.Page))
	v.Set("size", strconv.Itoa(s.Size))
	if s.Sort.Field != "" {
		v["sort"] = s.SortValues()
	}
	if s.SearchTerm != "" {
		v.Set("searchTerm", s.SearchTerm)
	}
	if s.FilterIdentifier != "" {
		v.Set("filterIdentifier", s.FilterIdentifier)
	}
	if len(s.Filters) > 0 {
		if raw, err := json.Marshal(s.Filters); err == nil {
			v.Set("filters", string(raw))
		}
	}
	if s.RepoIdentifier != "" {
		v.Set("repoIdentifier", s.RepoIdentifier)
	}
	if s.Branch != "" {
		v.Set("branch", s.Branch)
	}
	return v
}

// URL returns base with the state as its query string.
func (s State) URL(base string) string {
	encoded := s.Values().Encode()
	if encoded == "" {
		return base
	}
	if strings.Contains(base, "?") {
		return base + "&" + encoded
	}
	return base + "?" + encoded
}

// Normalize enforces the invariants of the state. A saved filter wins over
// ad-hoc filters.
func (s State) Normalize() State {
	if s.Page < 0 {
		s.Page = 0
	}
	if s.Size < 1 {
		s.Size = defaultSize
	}
	if s.Sort.Field != "" && s.Sort.Dir == "" {
		s.Sort.Dir = DirDesc
	}
	s.Filters = cleanFilters(s.Filters)
	if s.FilterIdentifier != "" {
		s.Filters = nil
	}
	return s
}

func cleanFilters(in map[string]string) map[string]string {
	var out map[string]string
	for k, v := range in {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(in))
		}
		out[k] = v
	}
	return out
}

// HasFilter reports whether a saved or ad-hoc filter is active.
func (s State) HasFilter() bool {
	return s.FilterIdentifier != "" || len(s.Filters) > 0
}

func (s State) WithSearch(term string) State {
	s.SearchTerm = strings.TrimSpace(term)
	s.Page = 0
	return s
}

func (s State) WithFilters(filters map[string]string) State {
	s.Filters = cleanFilters(maps.Clone(filters))
	s.FilterIdentifier = ""
	s.Page = 0
	return s
}

func (s State) WithFilterIdentifier(identifier string) State {
	s.FilterIdentifier = strings.TrimSpace(identifier)
	s.Filters = nil
	s.Page = 0
	return s
}

// ClearFilters drops both saved and ad-hoc filters.
func (s State) ClearFilters() State {
	s.FilterIdentifier = ""
	s.Filters = nil
	s.Page = 0
	return s
}

func (s State) WithPage(page int) State {
	s.Page = max(page, 0)
	return s
}

func (s State) WithSize(size int) State {
	if size > 0 {
		s.Size = min(size, maxSize)
	}
	s.Page = 0
	return s
}

func (s State) WithSort(field string, dir Direction) State {
	s.Sort = Sort{Field: strings.TrimSpace(field), Dir: dir}
	s.Page = 0
	return s.Normalize()
}

// ToggleSort sorts by field, flipping the direction when field is already
// the sort key.
func (s State) ToggleSort(field string) State {
	dir := DirAsc
	if s.Sort.Field == field && s.Sort.Dir == DirAsc {
		dir = DirDesc
	}
	return s.WithSort(field, dir)
}

// SortParam returns the sort as "field,DIR".
func (s State) SortParam() string {
	if s.Sort.Field == "" {
		return ""
	}
	return strings.Join(s.SortValues(), ",")
}

func (s State) SortValues() []string {
	if s.Sort.Field == "" {
		return nil
	}
	dir := s.Sort.Dir
	if dir == "" {
		dir = DirDesc
	}
	return []string{s.Sort.Field, string(dir)}
}

// AfterDelete returns the state to fetch after deleting a row from a page
// that held itemsOnPage rows. Emptying a page other than the first moves
// back one page.
func (s State) AfterDelete(itemsOnPage int) State {
	if itemsOnPage <= 1 && s.Page > 0 {
		s.Page--
	}
	return s
}
