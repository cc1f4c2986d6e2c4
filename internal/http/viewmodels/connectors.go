package viewmodels

type ConnectorRow struct {
	Name           string
	Identifier     string
	TenantID       string
	SubscriptionID string
	Features       []string
	Status         string
	StatusColor    string
	LastTestedAt   string
	LastModifiedAt string
	EditHref       string
}

type ConnectorsViewData struct {
	Layout        LayoutData
	Rows          []ConnectorRow
	SelfHref      string
	SearchTerm    string
	NewHref       string
	Paging        ListPaging
	Banner        string
	EmptyStateMsg string
}
