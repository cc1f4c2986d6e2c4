package views

import (
	"context"
	"strconv"

	"github.com/a-h/templ"
	"github.com/ngconsole/ngconsole/internal/ceazure"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
	"github.com/ngconsole/ngconsole/internal/wizard"
)

const WizardID = "wizard"

func WizardPage(data viewmodels.WizardViewData) templ.Component {
	return Layout(data.Layout, WizardDialog(data))
}

// WizardDialog renders the current step with its progress rail and the
// extension panel.
func WizardDialog(data viewmodels.WizardViewData) templ.Component {
	return component(func(ctx context.Context, p *printer) {
		p.f(`<div id="%s" class="wizard"><header><h1>%s</h1>`, safe(WizardID), data.Title)
		p.f(`<form method="post" action="%s">`, data.CloseURL)
		csrfInput(p, data.Layout.CSRFToken)
		p.s(`<button type="submit" class="btn-close" aria-label="Close">Close</button></form></header>`)

		p.s(`<ol class="wizard-steps">`)
		for _, step := range data.Steps {
			class := "pending"
			switch {
			case step.Current:
				class = "current"
			case step.Skipped:
				class = "skipped"
			case step.Done:
				class = "done"
			}
			p.f(`<li class="%s"%s>%s</li>`, class, attrIf(step.Current, `aria-current="step"`), step.Title)
		}
		p.s(`</ol><div class="wizard-body">`)

		view := data.View
		p.render(ctx, Banner(view.Banner))
		if data.Advisory != "" {
			p.f(`<div class="alert alert-warning" role="status">%s</div>`, data.Advisory)
		}

		p.f(`<form method="post" action="%s" hx-post="%s" hx-target="#%s" hx-swap="outerHTML" novalidate>`, data.ActionURL, data.ActionURL, safe(WizardID))
		csrfInput(p, data.Layout.CSRFToken)
		p.f(`<h2>%s</h2>`, view.Title)
		switch d := view.Data.(type) {
		case ceazure.OverviewData:
			overviewFields(p, d, view.Errors)
		case ceazure.BillingData:
			billingFields(p, d, view.Errors)
		case ceazure.RequirementsData:
			requirementsFields(p, d)
		case ceazure.PrincipalData:
			principalFields(p, d)
		case ceazure.VerifyData:
			verifyFields(p, d)
		}
		p.s(`<footer class="wizard-actions">`)
		if !data.First {
			p.s(`<button type="submit" name="action" value="back" formnovalidate>Back</button>`)
		}
		label := "Continue"
		if data.Last {
			label = "Finish"
		}
		p.f(`<button type="submit" name="action" value="next" class="btn-primary">%s</button></footer></form></div>`, label)

		if data.Panel.Visible {
			extensionPanel(p, data)
		}
		p.s(`</div>`)
	})
}

func textInput(p *printer, errs wizard.FieldErrors, name, label, value string, readonly bool) {
	p.f(`<label for="%s">%s</label><input id="%s" name="%s" type="text" value="%s"%s%s>`,
		name, label, name, name, value, attrIf(readonly, "readonly"), attrIf(errs.Get(name) != "", `aria-invalid="true"`))
	fieldError(p, errs, name)
}

func overviewFields(p *printer, d ceazure.OverviewData, errs wizard.FieldErrors) {
	textInput(p, errs, "name", "Connector name", d.Name, false)
	textInput(p, errs, "identifier", "Identifier", d.Identifier, d.IsEditMode)
	textInput(p, errs, "description", "Description (optional)", d.Description, false)
	textInput(p, errs, "tags", "Tags (key:value, ...)", d.Tags, false)
	textInput(p, errs, "tenant_id", "Azure tenant ID", d.TenantID, false)
	textInput(p, errs, "subscription_id", "Azure subscription ID", d.SubscriptionID, false)
}

func billingFields(p *printer, d ceazure.BillingData, errs wizard.FieldErrors) {
	if d.UseExisting() {
		p.s(`<fieldset><legend>Use an existing billing export</legend>`)
		for i, export := range d.Existing {
			id := "export-" + strconv.Itoa(i)
			p.f(`<div><input type="radio" id="%s" name="export" value="%d"%s><label for="%s">%s / %s / %s <small>%s</small></label></div>`,
				id, i, attrIf(i == d.Selected, "checked"), id, export.StorageAccountName, export.ContainerName, export.DirectoryName, export.ReportName)
		}
		fieldError(p, errs, "export")
		p.s(`</fieldset>`)
		return
	}
	p.f(`<p>Create a billing export in the Azure portal, then enter its location. <button type="submit" formaction="%s" name="open" value="true" formnovalidate>How to create an export</button><input type="hidden" name="kind" value="%s"></p>`,
		WizardExtensionHref, ceazure.ExtensionBillingExportHelp)
	textInput(p, errs, "storage_account_name", "Storage account name", d.Form.StorageAccountName, false)
	textInput(p, errs, "container_name", "Storage container", d.Form.ContainerName, false)
	textInput(p, errs, "directory_name", "Storage directory", d.Form.DirectoryName, false)
	textInput(p, errs, "report_name", "Report name", d.Form.ReportName, false)
	textInput(p, errs, "billing_subscription_id", "Subscription ID of the storage account", d.Form.SubscriptionID, false)
}

func requirementsFields(p *printer, d ceazure.RequirementsData) {
	p.s(`<fieldset class="feature-cards"><legend>Choose what the connector should do</legend>`)
	for _, opt := range d.Options {
		id := "feature-" + string(opt.Feature)
		p.f(`<div class="feature-card"><input type="checkbox" id="%s" name="features" value="%s"%s%s>`,
			id, opt.Feature, attrIf(opt.Selected, "checked"), attrIf(opt.Locked || opt.Disabled, "disabled"))
		if opt.Locked {
			p.f(`<input type="hidden" name="features" value="%s">`, opt.Feature)
		}
		p.f(`<label for="%s"><strong>%s</strong><span>%s</span></label>`, id, opt.Title, opt.Description)
		if opt.Disabled {
			p.s(`<small>A billing export is already configured for this tenant.</small>`)
		}
		p.s(`</div>`)
	}
	p.s(`</fieldset>`)
}

func principalFields(p *printer, d ceazure.PrincipalData) {
	p.f(`<p>Run these commands in Azure Cloud Shell to grant application <code>%s</code> the access the connector needs.</p>`, d.AppID)
	p.s(`<ol class="commands">`)
	for _, cmd := range d.Commands {
		p.f(`<li data-command="%s"><h3>%s</h3><pre><code>%s</code></pre></li>`, cmd.Key, cmd.Title, cmd.Script)
	}
	p.s(`</ol>`)
}

func verifyFields(p *printer, d ceazure.VerifyData) {
	p.f(`<p>Testing connection for <strong>%s</strong>.</p><ul class="checks">`, d.ConnectorName)
	for _, check := range d.Checks {
		p.f(`<li class="check check-%s" data-status="%s">%s</li>`, check.Status, check.Status, check.Name)
	}
	p.s(`</ul>`)
	if len(d.Errors) > 0 {
		p.s(`<ul class="check-errors">`)
		for _, e := range d.Errors {
			p.f(`<li>%s</li>`, e)
		}
		p.s(`</ul>`)
	}
}

func extensionPanel(p *printer, data viewmodels.WizardViewData) {
	p.f(`<aside class="wizard-extension" data-kind="%s"><form method="post" action="%s">`, data.Panel.Kind, data.PanelURL)
	csrfInput(p, data.Layout.CSRFToken)
	p.s(`<input type="hidden" name="open" value="false"><button type="submit" aria-label="Close panel">Close</button></form>`)
	switch data.Panel.Kind {
	case ceazure.ExtensionBillingExportHelp:
		p.s(`<h3>Create a billing export</h3><ol>` +
			`<li>Open Cost Management + Billing in the Azure portal and choose Exports.</li>` +
			`<li>Add a daily export of actual cost, month-to-date.</li>` +
			`<li>Pick a storage account, container and directory for the export.</li>` +
			`<li>Enter the same storage account, container, directory and export name here.</li></ol>`)
	default:
		p.f(`<p>%s</p>`, HumanizeIdentifier(string(data.Panel.Kind)))
	}
	p.s(`</aside>`)
}
