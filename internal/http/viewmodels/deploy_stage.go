package viewmodels

import "github.com/ngconsole/ngconsole/internal/deploystage"

type ServiceOption struct {
	Identifier string
	Name       string
	Selected   bool
	Local      bool
}

type DeployStageViewData struct {
	Layout          LayoutData
	Stage           deploystage.Stage
	Visibility      deploystage.Visibility
	DeploymentTypes []string
	Services        []ServiceOption
	ServiceKind     deploystage.ValueKind
	EnvironmentKind deploystage.ValueKind
	Errors          map[string]string
	ServiceErrors   map[string]string
	NewService      ServiceOption
	Preview         string
	Banner          string
	Saved           bool
}
