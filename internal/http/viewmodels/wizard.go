package viewmodels

import "github.com/ngconsole/ngconsole/internal/wizard"

type WizardStepItem struct {
	Title   string
	Current bool
	Done    bool
	Skipped bool
}

// WizardViewData is the dialog of a running wizard.
type WizardViewData struct {
	Layout     LayoutData
	Title      string
	Steps      []WizardStepItem
	View       wizard.View
	First      bool
	Last       bool
	Panel      wizard.PanelState
	ActionURL  string
	BackURL    string
	CloseURL   string
	PanelURL   string
	Advisory   string
	EditMode   bool
	FinishHref string
}
