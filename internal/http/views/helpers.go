package views

import (
	"net/url"
	"strconv"
	"strings"
)

func FormatInt(v int) string {
	return strconv.Itoa(v)
}

func FormatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

func QueryEscape(v string) string {
	return url.QueryEscape(v)
}

// WithQuery appends encoded values to href.
func WithQuery(href string, values url.Values) string {
	if len(values) == 0 {
		return href
	}
	sep := "?"
	if strings.Contains(href, "?") {
		sep = "&"
	}
	return href + sep + values.Encode()
}

func PipelineHref(identifier string) string {
	return "/pipelines/" + url.PathEscape(strings.TrimSpace(identifier))
}

func MonitoredServiceHref(identifier string) string {
	return "/monitored-services/" + url.PathEscape(strings.TrimSpace(identifier))
}

func WizardEditHref(identifier string) string {
	return "/connectors/ce-azure/wizard/edit/" + url.PathEscape(strings.TrimSpace(identifier))
}

const (
	WizardHref          = "/connectors/ce-azure/wizard"
	WizardNewHref       = WizardHref + "/new"
	WizardBackHref      = WizardHref + "/back"
	WizardCloseHref     = WizardHref + "/close"
	WizardExtensionHref = WizardHref + "/extension"
	ConnectorsHref      = "/connectors"
	PipelinesHref       = "/pipelines"
	MonitoredHref       = "/monitored-services"
	DeployStageHref     = "/deploy-stage"
	DeployServicesHref  = DeployStageHref + "/services"
)

func HumanizeIdentifier(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "—"
	}
	parts := strings.FieldsFunc(strings.ToLower(v), func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
