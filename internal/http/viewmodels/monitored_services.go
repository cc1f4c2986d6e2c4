package viewmodels

type MonitoredServiceRow struct {
	Name            string
	Identifier      string
	ServiceName     string
	EnvironmentName string
	Type            string
	Enabled         bool
	HealthScore     string
	HealthColor     string
	RiskStatus      string
	Changes         int
	Tags            []string
	ToggleHref      string
	DeleteHref      string
}

type MonitoredServicesViewData struct {
	Layout        LayoutData
	Rows          []MonitoredServiceRow
	SelfHref      string
	SearchTerm    string
	Environment   string
	Paging        ListPaging
	Banner        string
	EmptyStateMsg string
}
