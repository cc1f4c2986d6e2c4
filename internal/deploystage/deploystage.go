// Package deploystage models the service deployment stage form: values that
// may be fixed, supplied at runtime or computed from an expression, the rules
// deciding which fields are shown, and the YAML preview of the stage.
package deploystage

import (
	"fmt"
	"strings"

	"github.com/ngconsole/ngconsole/internal/wizard"
	"gopkg.in/yaml.v3"
)

// RuntimeInput is the marker for values supplied when the pipeline runs.
const RuntimeInput = "<+input>"

type ValueKind string

const (
	KindFixed      ValueKind = "fixed"
	KindRuntime    ValueKind = "runtime"
	KindExpression ValueKind = "expression"
)

// Value is a form value that may be fixed, runtime or an expression.
type Value string

func (v Value) String() string { return strings.TrimSpace(string(v)) }

func (v Value) Kind() ValueKind {
	s := v.String()
	switch {
	case strings.HasPrefix(s, RuntimeInput):
		return KindRuntime
	case strings.HasPrefix(s, "<+") && strings.HasSuffix(s, ">"):
		return KindExpression
	default:
		return KindFixed
	}
}

func (v Value) Empty() bool { return v.String() == "" }

// FixedSet reports whether v is a concrete, non-empty value.
func (v Value) FixedSet() bool {
	return !v.Empty() && v.Kind() == KindFixed
}

// WithKind converts v to kind, keeping the text where it still makes sense.
func (v Value) WithKind(kind ValueKind) Value {
	switch kind {
	case KindRuntime:
		return RuntimeInput
	case KindExpression:
		if v.Kind() == KindExpression {
			return v
		}
		return "<+>"
	default:
		if v.Kind() == KindFixed {
			return v
		}
		return ""
	}
}

var DeploymentTypes = []string{"Kubernetes", "NativeHelm", "Ssh", "WinRm", "ServerlessAwsLambda", "ECS"}

// Stage is the draft of a deployment stage.
type Stage struct {
	Name              string `json:"name"`
	Identifier        string `json:"identifier"`
	DeploymentType    string `json:"deploymentType"`
	Service           Value  `json:"service"`
	Environment       Value  `json:"environment"`
	Infrastructure    Value  `json:"infrastructure"`
	ServiceInputs     string `json:"serviceInputs,omitempty"`
	EnvironmentInputs string `json:"environmentInputs,omitempty"`
}

// Visibility says which optional fields the form renders.
type Visibility struct {
	ServiceInputs             bool
	EnvironmentInputs         bool
	Infrastructure            bool
	InfrastructureRuntimeOnly bool
}

// Fields applies the visibility rules: inputs of a service or environment
// are only editable when it is a fixed value, infrastructure needs an
// environment, and a runtime environment forces a runtime infrastructure.
func Fields(s Stage) Visibility {
	return Visibility{
		ServiceInputs:             s.Service.FixedSet(),
		EnvironmentInputs:         s.Environment.FixedSet(),
		Infrastructure:            !s.Environment.Empty(),
		InfrastructureRuntimeOnly: s.Environment.Kind() == KindRuntime,
	}
}

// Normalize applies the rules of Fields to the values: inputs of hidden
// fields are dropped and a runtime environment makes the infrastructure
// runtime as well.
func Normalize(s Stage) Stage {
	s.Name = strings.TrimSpace(s.Name)
	s.Identifier = strings.TrimSpace(s.Identifier)
	if s.DeploymentType == "" {
		s.DeploymentType = DeploymentTypes[0]
	}
	vis := Fields(s)
	if !vis.ServiceInputs {
		s.ServiceInputs = ""
	}
	if !vis.EnvironmentInputs {
		s.EnvironmentInputs = ""
	}
	if !vis.Infrastructure {
		s.Infrastructure = ""
	}
	if vis.InfrastructureRuntimeOnly {
		s.Infrastructure = RuntimeInput
	}
	return s
}

// stageForm holds the checks the shared form validator can express.
type stageForm struct {
	Name           string `form:"name" validate:"required,max=128"`
	Identifier     string `form:"identifier" validate:"required,identifier"`
	DeploymentType string `form:"deployment_type" validate:"oneof=Kubernetes NativeHelm Ssh WinRm ServerlessAwsLambda ECS"`
	Service        Value  `form:"service" validate:"required"`
	Environment    Value  `form:"environment" validate:"required"`
}

// Validate returns field errors keyed by form field name.
func Validate(s Stage) map[string]string {
	errs := wizard.Validate(stageForm{
		Name:           s.Name,
		Identifier:     s.Identifier,
		DeploymentType: s.DeploymentType,
		Service:        Value(s.Service.String()),
		Environment:    Value(s.Environment.String()),
	})
	for field, v := range map[string]Value{"service": s.Service, "environment": s.Environment} {
		if v.Kind() == KindExpression && v.String() == "<+>" {
			errs = errs.Add(field, "Enter an expression.")
		}
	}
	if Fields(s).Infrastructure && s.Infrastructure.Empty() {
		errs = errs.Add("infrastructure", "This field is required.")
	}
	for field, raw := range map[string]string{"service_inputs": s.ServiceInputs, "environment_inputs": s.EnvironmentInputs} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		var node yaml.Node
		if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
			errs = errs.Add(field, "Enter valid YAML.")
		}
	}
	if errs.Empty() {
		return nil
	}
	return errs
}

type stageDoc struct {
	Stage stageBody `yaml:"stage"`
}

type stageBody struct {
	Name       string    `yaml:"name"`
	Identifier string    `yaml:"identifier"`
	Type       string    `yaml:"type"`
	Spec       stageSpec `yaml:"spec"`
}

type stageSpec struct {
	DeploymentType string          `yaml:"deploymentType"`
	Service        serviceSpec     `yaml:"service"`
	Environment    environmentSpec `yaml:"environment"`
}

type serviceSpec struct {
	ServiceRef    string `yaml:"serviceRef"`
	ServiceInputs any    `yaml:"serviceInputs,omitempty"`
}

type environmentSpec struct {
	EnvironmentRef            string `yaml:"environmentRef"`
	DeployToAll               bool   `yaml:"deployToAll"`
	EnvironmentInputs         any    `yaml:"environmentInputs,omitempty"`
	InfrastructureDefinitions any    `yaml:"infrastructureDefinitions,omitempty"`
}

type infraRef struct {
	Identifier string `yaml:"identifier"`
}

// Preview renders the stage as pipeline YAML.
func Preview(s Stage) (string, error) {
	s = Normalize(s)
	doc := stageDoc{Stage: stageBody{
		Name:       s.Name,
		Identifier: s.Identifier,
		Type:       "Deployment",
		Spec: stageSpec{
			DeploymentType: s.DeploymentType,
			Service:        serviceSpec{ServiceRef: s.Service.String()},
			Environment:    environmentSpec{EnvironmentRef: s.Environment.String()},
		},
	}}

	inputs, err := yamlInputs(s.ServiceInputs)
	if err != nil {
		return "", fmt.Errorf("service inputs: %w", err)
	}
	doc.Stage.Spec.Service.ServiceInputs = inputs
	inputs, err = yamlInputs(s.EnvironmentInputs)
	if err != nil {
		return "", fmt.Errorf("environment inputs: %w", err)
	}
	doc.Stage.Spec.Environment.EnvironmentInputs = inputs

	switch {
	case s.Infrastructure.Empty():
	case s.Infrastructure.Kind() == KindFixed:
		doc.Stage.Spec.Environment.InfrastructureDefinitions = []infraRef{{Identifier: s.Infrastructure.String()}}
	default:
		doc.Stage.Spec.Environment.InfrastructureDefinitions = s.Infrastructure.String()
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func yamlInputs(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	return node.Content[0], nil
}
