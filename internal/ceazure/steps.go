package ceazure

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/ngconsole/ngconsole/internal/config"
	"github.com/ngconsole/ngconsole/internal/ngclient"
	"github.com/ngconsole/ngconsole/internal/wizard"
)

const (
	StepOverview               = "overview"
	StepBilling                = "billing"
	StepChooseRequirements     = "choose_requirements"
	StepCreateServicePrincipal = "create_service_principal"
	StepVerifyConnection       = "verify_connection"

	ExtensionBillingExportHelp wizard.ExtensionKind = "billing_export_help"

	AdvisoryConnectorExists = "A CE-Azure connector already exists for this tenant and subscription."

	CheckAuthentication = "Validating Azure authentication and permissions"
	CheckBillingExport  = "Verifying connection to the billing export"
)

// Backend is the part of the platform API the wizard talks to.
type Backend interface {
	ListConnectors(ctx context.Context, filter ngclient.ConnectorFilter, page ngclient.PageRequest) (ngclient.Page[ngclient.ConnectorResponse], error)
	ListAzureBillingExports(ctx context.Context, tenantID, subscriptionID string) ([]ngclient.AzureBillingExportSpec, error)
	GetAzureAppClientID(ctx context.Context) (string, error)
	CreateConnector(ctx context.Context, connector ngclient.ConnectorInfo) (ngclient.ConnectorResponse, error)
	UpdateConnector(ctx context.Context, connector ngclient.ConnectorInfo) (ngclient.ConnectorResponse, error)
	TestConnection(ctx context.Context, scope ngclient.Scope, identifier string) (ngclient.ConnectorValidationResult, error)
}

// Steps returns the steps of the given variant in order.
func Steps(variant config.WizardVariant, backend Backend) []wizard.Step[Payload] {
	overview := &overviewStep{backend: backend}
	principal := &servicePrincipalStep{backend: backend}
	verify := &verifyStep{backend: backend}

	if variant == config.WizardVariantRequirementsFirst {
		return []wizard.Step[Payload]{
			overview,
			requirementsStep{},
			billingStep{onlyWhenSelected: true},
			principal,
			verify,
		}
	}
	return []wizard.Step[Payload]{
		overview,
		billingStep{},
		requirementsStep{},
		principal,
		verify,
	}
}

func NewHost(variant config.WizardVariant, backend Backend) (*wizard.Host[Payload], error) {
	return wizard.NewHost[Payload](string(Kind), Steps(variant, backend)...)
}

func isBack(form wizard.Form) bool {
	return form.Get("action") == "back"
}

type OverviewData struct {
	Name           string
	Identifier     string
	Description    string
	Tags           string
	TenantID       string
	SubscriptionID string
	IsEditMode     bool
}

type overviewForm struct {
	Name           string `form:"name" validate:"required,max=128"`
	Identifier     string `form:"identifier" validate:"required,identifier"`
	Description    string `form:"description" validate:"max=1024"`
	TenantID       string `form:"tenant_id" validate:"required,guid"`
	SubscriptionID string `form:"subscription_id" validate:"required,guid"`
}

type overviewStep struct {
	backend Backend
}

func (s *overviewStep) Name() string  { return StepOverview }
func (s *overviewStep) Title() string { return "Overview" }

func (s *overviewStep) View(ctx context.Context, props wizard.Props[Payload]) (wizard.View, error) {
	p := props.Prev
	return wizard.View{Data: OverviewData{
		Name:           p.Name,
		Identifier:     p.Identifier,
		Description:    p.Description,
		Tags:           FormatTags(p.Tags),
		TenantID:       p.Spec.TenantID,
		SubscriptionID: p.Spec.SubscriptionID,
		IsEditMode:     p.IsEditMode,
	}}, nil
}

func (s *overviewStep) Submit(ctx context.Context, props wizard.Props[Payload], form wizard.Form) (wizard.View, error) {
	prev := props.Prev
	data := OverviewData{
		Name:           form.Get("name"),
		Identifier:     form.Get("identifier"),
		Description:    form.Get("description"),
		Tags:           form.Get("tags"),
		TenantID:       form.Get("tenant_id"),
		SubscriptionID: form.Get("subscription_id"),
		IsEditMode:     prev.IsEditMode,
	}
	if prev.IsEditMode {
		data.Identifier = prev.Identifier
	} else if data.Identifier == "" {
		data.Identifier = IdentifierFromName(data.Name)
	}

	if errs := wizard.Validate(overviewForm{
		Name:           data.Name,
		Identifier:     data.Identifier,
		Description:    data.Description,
		TenantID:       data.TenantID,
		SubscriptionID: data.SubscriptionID,
	}); !errs.Empty() {
		return wizard.View{Data: data, Errors: errs}, nil
	}

	lookup, err := lookupTenant(ctx, s.backend, data.TenantID, data.SubscriptionID, prev.Identifier)
	if err != nil {
		return wizard.View{
			Data:   data,
			Banner: ngclient.ErrorMessage(err, "Could not check the tenant for existing connectors."),
		}, nil
	}
	if lookup.duplicate && !prev.IsEditMode {
		return wizard.View{Data: data, Advisory: AdvisoryConnectorExists}, nil
	}

	next := prev.Clone()
	next.Name = data.Name
	next.Identifier = data.Identifier
	next.Description = data.Description
	next.Tags = ParseTags(data.Tags)
	next.Spec.TenantID = data.TenantID
	next.Spec.SubscriptionID = data.SubscriptionID
	next.HasBilling = lookup.hasBilling
	next.ExistingBillingExports = lookup.exports
	next.DuplicateAdvisory = lookup.duplicate
	if next.HasBilling {
		next.Spec.FeaturesEnabled = next.Features().Remove(FeatureBilling).Slice()
	}
	props.Next(next)
	return wizard.View{}, nil
}

type BillingData struct {
	Existing []BillingExportSpec
	Selected int
	Form     BillingExportSpec
}

// UseExisting reports whether the step offers a pick list instead of the
// create form.
func (d BillingData) UseExisting() bool {
	return len(d.Existing) > 0
}

type billingForm struct {
	StorageAccountName string `form:"storage_account_name" validate:"required,min=3,max=24,lowercase,alphanum"`
	ContainerName      string `form:"container_name" validate:"required,min=3,max=63"`
	DirectoryName      string `form:"directory_name" validate:"required,max=1024"`
	ReportName         string `form:"report_name" validate:"required,max=256"`
	SubscriptionID     string `form:"billing_subscription_id" validate:"required,guid"`
}

type billingStep struct {
	onlyWhenSelected bool
}

func (s billingStep) Name() string  { return StepBilling }
func (s billingStep) Title() string { return "Azure billing export" }

func (s billingStep) Skip(p Payload) bool {
	if !s.onlyWhenSelected {
		return false
	}
	return p.HasBilling || !p.Features().Has(FeatureBilling)
}

// Enter opens the export help next to the create form.
func (s billingStep) Enter(p Payload, panel wizard.Panel) {
	if !billingData(p).UseExisting() {
		panel.Trigger(ExtensionBillingExportHelp)
	}
}

func (s billingStep) View(ctx context.Context, props wizard.Props[Payload]) (wizard.View, error) {
	return wizard.View{Data: billingData(props.Prev)}, nil
}

func billingData(p Payload) BillingData {
	data := BillingData{Existing: p.ExistingBillingExports, Selected: -1}
	if p.Spec.BillingExportSpec != nil {
		data.Form = *p.Spec.BillingExportSpec
		data.Selected = slices.Index(p.ExistingBillingExports, *p.Spec.BillingExportSpec)
	}
	if data.Form.SubscriptionID == "" {
		data.Form.SubscriptionID = p.Spec.SubscriptionID
	}
	if data.UseExisting() && data.Selected < 0 {
		data.Selected = 0
	}
	return data
}

func (s billingStep) Submit(ctx context.Context, props wizard.Props[Payload], form wizard.Form) (wizard.View, error) {
	if isBack(form) {
		props.Back()
		return wizard.View{}, nil
	}
	data := billingData(props.Prev)
	var chosen BillingExportSpec

	if data.UseExisting() {
		idx, err := strconv.Atoi(form.Get("export"))
		if err != nil || idx < 0 || idx >= len(data.Existing) {
			return wizard.View{Data: data, Errors: wizard.FieldErrors{}.Add("export", "Choose one of the existing billing exports.")}, nil
		}
		chosen = data.Existing[idx]
	} else {
		chosen = BillingExportSpec{
			StorageAccountName: form.Get("storage_account_name"),
			ContainerName:      form.Get("container_name"),
			DirectoryName:      form.Get("directory_name"),
			ReportName:         form.Get("report_name"),
			SubscriptionID:     form.Get("billing_subscription_id"),
		}
		if errs := wizard.Validate(billingForm(chosen)); !errs.Empty() {
			data.Form = chosen
			return wizard.View{Data: data, Errors: errs}, nil
		}
	}

	next := props.Prev.Clone()
	next.Spec.BillingExportSpec = &chosen
	props.Next(next)
	return wizard.View{}, nil
}

type FeatureOption struct {
	Feature     Feature
	Title       string
	Description string
	Selected    bool
	Locked      bool
	Disabled    bool
}

type RequirementsData struct {
	Options []FeatureOption
}

type requirementsStep struct{}

func (requirementsStep) Name() string  { return StepChooseRequirements }
func (requirementsStep) Title() string { return "Choose requirements" }

func requirementsData(p Payload) RequirementsData {
	selected := p.Features()
	return RequirementsData{Options: []FeatureOption{
		{
			Feature:     FeatureBilling,
			Title:       "Cost visibility",
			Description: "Read the billing export to show cost across subscriptions and resource groups.",
			Selected:    selected.Has(FeatureBilling),
			Disabled:    p.HasBilling,
		},
		{
			Feature:     FeatureVisibility,
			Title:       "Resource inventory",
			Description: "List VMs and other resources with their utilisation. Always enabled.",
			Selected:    true,
			Locked:      true,
		},
		{
			Feature:     FeatureOptimization,
			Title:       "Optimization by auto-stopping",
			Description: "Stop idle resources to save cost. Needs the Contributor role.",
			Selected:    selected.Has(FeatureOptimization),
		},
	}}
}

func (requirementsStep) View(ctx context.Context, props wizard.Props[Payload]) (wizard.View, error) {
	return wizard.View{Data: requirementsData(props.Prev)}, nil
}

func (requirementsStep) Submit(ctx context.Context, props wizard.Props[Payload], form wizard.Form) (wizard.View, error) {
	if isBack(form) {
		props.Back()
		return wizard.View{}, nil
	}
	features := NewFeatureSet()
	for _, raw := range form.All("features") {
		if f, ok := ParseFeature(raw); ok {
			features = features.Add(f)
		}
	}
	if props.Prev.HasBilling {
		features = features.Remove(FeatureBilling)
	}

	next := props.Prev.Clone()
	next.Spec.FeaturesEnabled = features.Slice()
	props.Next(next)
	return wizard.View{}, nil
}

type PrincipalData struct {
	AppID    string
	Commands []Command
}

type servicePrincipalStep struct {
	backend Backend
}

func (s *servicePrincipalStep) Name() string  { return StepCreateServicePrincipal }
func (s *servicePrincipalStep) Title() string { return "Create service principal" }

func (s *servicePrincipalStep) View(ctx context.Context, props wizard.Props[Payload]) (wizard.View, error) {
	return s.view(ctx, props.Prev), nil
}

func (s *servicePrincipalStep) view(ctx context.Context, p Payload) wizard.View {
	var view wizard.View
	appID, err := s.backend.GetAzureAppClientID(ctx)
	if err != nil {
		view.Banner = ngclient.ErrorMessage(err, "Could not load the application id.")
	}
	params := CommandParams{AppID: appID, SubscriptionID: p.Spec.SubscriptionID}
	if p.Spec.BillingExportSpec != nil {
		params.StorageAccount = p.Spec.BillingExportSpec.StorageAccountName
	}
	view.Data = PrincipalData{AppID: appID, Commands: Commands(ProvisioningSet(p), params)}
	return view
}

func (s *servicePrincipalStep) Submit(ctx context.Context, props wizard.Props[Payload], form wizard.Form) (wizard.View, error) {
	if isBack(form) {
		props.Back()
		return wizard.View{}, nil
	}
	prev := props.Prev
	connector, err := prev.Connector()
	if err != nil {
		return wizard.View{}, err
	}

	if prev.IsEditMode || prev.Saved {
		_, err = s.backend.UpdateConnector(ctx, connector)
	} else {
		_, err = s.backend.CreateConnector(ctx, connector)
	}
	if err != nil {
		view := s.view(ctx, prev)
		view.Banner = ngclient.ErrorMessage(err, "Could not save the connector.")
		return view, nil
	}

	next := prev.Clone()
	next.Saved = true
	props.Next(next)
	return wizard.View{}, nil
}

type CheckStatus string

const (
	CheckSucceeded CheckStatus = "success"
	CheckFailed    CheckStatus = "failure"
	CheckSkipped   CheckStatus = "skipped"
	CheckNotRun    CheckStatus = "not_run"
)

type Check struct {
	Name   string
	Status CheckStatus
}

type VerifyData struct {
	ConnectorName string
	Checks        []Check
	Succeeded     bool
	Errors        []string
}

type verifyStep struct {
	backend Backend
}

func (s *verifyStep) Name() string  { return StepVerifyConnection }
func (s *verifyStep) Title() string { return "Verify connection" }

// View runs the connection test every time the step is shown.
func (s *verifyStep) View(ctx context.Context, props wizard.Props[Payload]) (wizard.View, error) {
	p := props.Prev
	data := VerifyData{ConnectorName: p.Name}
	billing := p.Features().Has(FeatureBilling)

	result, err := s.backend.TestConnection(ctx, ngclient.Scope{}, p.Identifier)
	switch {
	case err != nil:
		data.Errors = []string{ngclient.ErrorMessage(err, "Connection test failed.")}
	case result.Succeeded():
		data.Succeeded = true
	default:
		for _, e := range result.Errors {
			msg := e.Message
			if msg == "" {
				msg = e.Reason
			}
			if msg != "" {
				data.Errors = append(data.Errors, msg)
			}
		}
		if len(data.Errors) == 0 && result.ErrorSummary != "" {
			data.Errors = []string{result.ErrorSummary}
		}
	}

	auth := Check{Name: CheckAuthentication, Status: CheckFailed}
	export := Check{Name: CheckBillingExport, Status: CheckNotRun}
	if data.Succeeded {
		auth.Status = CheckSucceeded
		export.Status = CheckSucceeded
	}
	if !billing {
		export.Status = CheckSkipped
	}
	data.Checks = []Check{auth, export}

	view := wizard.View{Data: data}
	if !data.Succeeded {
		view.Banner = fmt.Sprintf("Connection test for %s did not succeed. You can finish now and fix the permissions later.", p.Name)
	}
	return view, nil
}

func (s *verifyStep) Submit(ctx context.Context, props wizard.Props[Payload], form wizard.Form) (wizard.View, error) {
	if isBack(form) {
		props.Back()
		return wizard.View{}, nil
	}
	props.Finish()
	return wizard.View{}, nil
}
