package viewmodels

// ToastViewData is a one-shot notification carried across a redirect.
type ToastViewData struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type LayoutData struct {
	Title      string
	CSRFToken  string
	AccountID  string
	Toast      *ToastViewData
	ActivePath string
}

// ListPaging is the pager rendered under list tables. Page is zero-based.
type ListPaging struct {
	Page        int
	TotalPages  int
	TotalItems  int64
	ShowingFrom int
	ShowingTo   int
	PrevHref    string
	NextHref    string
}

type SortOption struct {
	Label  string
	Href   string
	Active bool
	Dir    string
}
