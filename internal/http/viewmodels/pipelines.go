package viewmodels

type PipelineRow struct {
	Name          string
	Identifier    string
	Description   string
	Tags          []string
	Stages        int64
	LastStatus    string
	StatusColor   string
	LastRunAt     string
	LastUpdatedAt string
	Repo          string
	ViewHref      string
	RunHref       string
	CloneHref     string
	DeleteHref    string
}

type SavedFilterOption struct {
	Identifier string
	Name       string
	Selected   bool
}

type PipelinesViewData struct {
	Layout            LayoutData
	Rows              []PipelineRow
	SelfHref          string
	SearchTerm        string
	FilterIdentifier  string
	FilterName        string
	FilterDescription string
	FilterTags        string
	SavedFilters      []SavedFilterOption
	SortOptions       []SortOption
	Paging            ListPaging
	HiddenQuery       map[string][]string
	Banner            string
	EmptyStateMsg     string
}

type PipelineDetailViewData struct {
	Layout     LayoutData
	Name       string
	Identifier string
	YAML       string
	BackHref   string
	RunHref    string
}

// DeleteConfirmViewData backs the confirm dialog shared by list pages.
type DeleteConfirmViewData struct {
	Layout    LayoutData
	Kind      string
	Name      string
	ActionURL string
	CancelURL string
	Target    string
}
