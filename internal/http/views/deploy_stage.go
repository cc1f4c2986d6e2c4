package views

import (
	"context"

	"github.com/a-h/templ"
	"github.com/ngconsole/ngconsole/internal/deploystage"
	"github.com/ngconsole/ngconsole/internal/http/viewmodels"
)

const DeployStageFormID = "deploy-stage"

func DeployStagePage(data viewmodels.DeployStageViewData) templ.Component {
	return Layout(data.Layout, component(func(ctx context.Context, p *printer) {
		p.s(`<header class="page-header"><h1>Deploy stage</h1></header>`)
		p.render(ctx, DeployStageForm(data))
	}))
}

func kindSelect(p *printer, name string, current deploystage.ValueKind) {
	p.f(`<select name="%s" aria-label="Value type" hx-post="%s" hx-target="#%s" hx-swap="outerHTML" hx-vals='{"action":"refresh"}'>`,
		name, DeployStageHref, safe(DeployStageFormID))
	for _, kind := range []deploystage.ValueKind{deploystage.KindFixed, deploystage.KindRuntime, deploystage.KindExpression} {
		p.f(`<option value="%s"%s>%s</option>`, kind, attrIf(kind == current, "selected"), HumanizeIdentifier(string(kind)))
	}
	p.s(`</select>`)
}

// DeployStageForm is swapped whenever a value type changes so the visible
// fields follow the selected service and environment.
func DeployStageForm(data viewmodels.DeployStageViewData) templ.Component {
	return component(func(ctx context.Context, p *printer) {
		s := data.Stage
		vis := data.Visibility
		errs := data.Errors

		p.f(`<div id="%s" class="deploy-stage">`, safe(DeployStageFormID))
		p.render(ctx, Banner(data.Banner))
		if data.Saved {
			p.s(`<div class="alert alert-success" role="status">Draft saved.</div>`)
		}
		p.f(`<form method="post" action="%s" hx-post="%s" hx-target="#%s" hx-swap="outerHTML">`, DeployStageHref, DeployStageHref, safe(DeployStageFormID))
		csrfInput(p, data.Layout.CSRFToken)

		p.f(`<label for="stage-name">Stage name</label><input id="stage-name" name="name" value="%s">`, s.Name)
		fieldError(p, errs, "name")
		p.f(`<label for="stage-identifier">Identifier</label><input id="stage-identifier" name="identifier" value="%s">`, s.Identifier)
		fieldError(p, errs, "identifier")

		p.s(`<fieldset><legend>Deployment type</legend>`)
		for _, t := range data.DeploymentTypes {
			p.f(`<label><input type="radio" name="deployment_type" value="%s"%s> %s</label>`, t, attrIf(t == s.DeploymentType, "checked"), t)
		}
		fieldError(p, errs, "deployment_type")
		p.s(`</fieldset>`)

		p.s(`<fieldset class="service"><legend>Service</legend>`)
		kindSelect(p, "service_kind", data.ServiceKind)
		if data.ServiceKind == deploystage.KindFixed {
			p.s(`<select name="service" aria-label="Service"><option value="">Select a service</option>`)
			for _, svc := range data.Services {
				label := svc.Name
				if svc.Local {
					label += " (new)"
				}
				p.f(`<option value="%s"%s>%s</option>`, svc.Identifier, attrIf(svc.Selected, "selected"), label)
			}
			p.s(`</select>`)
		} else {
			p.f(`<input name="service" value="%s" aria-label="Service"%s>`, s.Service, attrIf(data.ServiceKind == deploystage.KindRuntime, "readonly"))
		}
		fieldError(p, errs, "service")
		if vis.ServiceInputs {
			p.f(`<label for="service-inputs">Service inputs (YAML)</label><textarea id="service-inputs" name="service_inputs" rows="6">%s</textarea>`, s.ServiceInputs)
			fieldError(p, errs, "service_inputs")
		}
		p.s(`</fieldset>`)

		p.s(`<fieldset class="environment"><legend>Environment</legend>`)
		kindSelect(p, "environment_kind", data.EnvironmentKind)
		p.f(`<input name="environment" value="%s" aria-label="Environment"%s>`, s.Environment, attrIf(data.EnvironmentKind == deploystage.KindRuntime, "readonly"))
		fieldError(p, errs, "environment")
		if vis.EnvironmentInputs {
			p.f(`<label for="environment-inputs">Environment inputs (YAML)</label><textarea id="environment-inputs" name="environment_inputs" rows="6">%s</textarea>`, s.EnvironmentInputs)
			fieldError(p, errs, "environment_inputs")
		}
		if vis.Infrastructure {
			p.f(`<label for="infrastructure">Infrastructure</label><input id="infrastructure" name="infrastructure" value="%s"%s>`, s.Infrastructure, attrIf(vis.InfrastructureRuntimeOnly, "readonly"))
			fieldError(p, errs, "infrastructure")
		}
		p.s(`</fieldset>`)

		p.s(`<footer><button type="submit" name="action" value="preview">Preview YAML</button><button type="submit" name="action" value="save" class="btn-primary">Save draft</button></footer></form>`)

		p.f(`<form class="inline-service" method="post" action="%s" hx-post="%s" hx-target="#%s" hx-swap="outerHTML" hx-include="#%s">`,
			DeployServicesHref, DeployServicesHref, safe(DeployStageFormID), safe(DeployStageFormID))
		csrfInput(p, data.Layout.CSRFToken)
		p.s(`<h2>New service</h2>`)
		p.f(`<input name="service_name" value="%s" placeholder="Service name" aria-label="Service name">`, data.NewService.Name)
		fieldError(p, data.ServiceErrors, "service_name")
		p.f(`<input name="service_identifier" value="%s" placeholder="Identifier" aria-label="Service identifier">`, data.NewService.Identifier)
		fieldError(p, data.ServiceErrors, "service_identifier")
		p.s(`<button type="submit">Create service</button></form>`)

		if data.Preview != "" {
			p.f(`<pre class="yaml preview"><code>%s</code></pre>`, data.Preview)
		}
		p.s(`</div>`)
	})
}
