package deploystage

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestValueKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Value
		want ValueKind
	}{
		{in: "checkout", want: KindFixed},
		{in: "", want: KindFixed},
		{in: "<+input>", want: KindRuntime},
		{in: "<+input>.allowedValues(a,b)", want: KindRuntime},
		{in: " <+pipeline.variables.svc> ", want: KindExpression},
		{in: "<+oops", want: KindFixed},
	}
	for _, tt := range tests {
		if got := tt.in.Kind(); got != tt.want {
			t.Fatalf("Value(%q).Kind() = %s, want %s", tt.in, got, tt.want)
		}
	}

	if got := Value("checkout").WithKind(KindRuntime); got != RuntimeInput {
		t.Fatalf("WithKind(runtime) = %q", got)
	}
	if got := Value("<+input>").WithKind(KindFixed); got != "" {
		t.Fatalf("WithKind(fixed) = %q, want empty", got)
	}
}

func TestFieldVisibility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		stage Stage
		want  Visibility
	}{
		{
			name:  "fixed service and environment",
			stage: Stage{Service: "checkout", Environment: "prod"},
			want:  Visibility{ServiceInputs: true, EnvironmentInputs: true, Infrastructure: true},
		},
		{
			name:  "runtime environment forces runtime infrastructure",
			stage: Stage{Service: "<+input>", Environment: "<+input>"},
			want:  Visibility{Infrastructure: true, InfrastructureRuntimeOnly: true},
		},
		{
			name:  "expression service hides inputs",
			stage: Stage{Service: "<+stage.variables.svc>"},
			want:  Visibility{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, Fields(tt.stage)); diff != "" {
				t.Fatalf("Fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeDropsHiddenValues(t *testing.T) {
	t.Parallel()

	got := Normalize(Stage{
		Name:           " Deploy ",
		Identifier:     "deploy",
		Service:        "<+input>",
		ServiceInputs:  "replicas: 2",
		Environment:    "<+input>",
		Infrastructure: "k8s_prod",
	})
	want := Stage{
		Name:           "Deploy",
		Identifier:     "deploy",
		DeploymentType: "Kubernetes",
		Service:        "<+input>",
		Environment:    "<+input>",
		Infrastructure: RuntimeInput,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	errs := Validate(Normalize(Stage{Identifier: "1bad", Environment: "prod", ServiceInputs: "a: [", DeploymentType: "Mainframe"}))
	for _, field := range []string{"name", "identifier", "deployment_type", "service", "infrastructure"} {
		if errs[field] == "" {
			t.Fatalf("expected error for %s, got %v", field, errs)
		}
	}

	ok := Normalize(Stage{Name: "Deploy", Identifier: "deploy", Service: "checkout", Environment: "prod", Infrastructure: "k8s"})
	if errs := Validate(ok); errs != nil {
		t.Fatalf("Validate(valid) = %v", errs)
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	out, err := Preview(Stage{
		Name:           "Deploy",
		Identifier:     "deploy",
		Service:        "checkout",
		ServiceInputs:  "serviceDefinition:\n  type: Kubernetes\n",
		Environment:    "prod",
		Infrastructure: "k8s_prod",
	})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	var doc struct {
		Stage struct {
			Identifier string `yaml:"identifier"`
			Type       string `yaml:"type"`
			Spec       struct {
				DeploymentType string `yaml:"deploymentType"`
				Service        struct {
					ServiceRef    string         `yaml:"serviceRef"`
					ServiceInputs map[string]any `yaml:"serviceInputs"`
				} `yaml:"service"`
				Environment struct {
					EnvironmentRef            string `yaml:"environmentRef"`
					InfrastructureDefinitions []struct {
						Identifier string `yaml:"identifier"`
					} `yaml:"infrastructureDefinitions"`
				} `yaml:"environment"`
			} `yaml:"spec"`
		} `yaml:"stage"`
	}
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("preview is not valid YAML: %v\n%s", err, out)
	}
	if doc.Stage.Type != "Deployment" || doc.Stage.Spec.Service.ServiceRef != "checkout" || doc.Stage.Spec.DeploymentType != "Kubernetes" {
		t.Fatalf("preview = %s", out)
	}
	if len(doc.Stage.Spec.Environment.InfrastructureDefinitions) != 1 || doc.Stage.Spec.Environment.InfrastructureDefinitions[0].Identifier != "k8s_prod" {
		t.Fatalf("infrastructure = %+v", doc.Stage.Spec.Environment.InfrastructureDefinitions)
	}
	if doc.Stage.Spec.Service.ServiceInputs["serviceDefinition"] == nil {
		t.Fatalf("service inputs missing from preview:\n%s", out)
	}
}

func TestPreviewRuntimeInfrastructure(t *testing.T) {
	t.Parallel()

	out, err := Preview(Stage{Name: "Deploy", Identifier: "deploy", Service: "checkout", Environment: "<+input>"})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	var doc struct {
		Stage struct {
			Spec struct {
				Environment map[string]any `yaml:"environment"`
			} `yaml:"spec"`
		} `yaml:"stage"`
	}
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("preview is not valid YAML: %v", err)
	}
	env := doc.Stage.Spec.Environment
	if env["infrastructureDefinitions"] != RuntimeInput || env["environmentRef"] != RuntimeInput {
		t.Fatalf("environment = %v", env)
	}
}

func TestValidateAcceptsEveryDeploymentType(t *testing.T) {
	t.Parallel()

	for _, dt := range DeploymentTypes {
		s := Normalize(Stage{Name: "Deploy", Identifier: "deploy", DeploymentType: dt, Service: "checkout", Environment: "prod", Infrastructure: "k8s"})
		if errs := Validate(s); errs != nil {
			t.Fatalf("Validate(%s) = %v", dt, errs)
		}
	}
}

func TestValidateMessages(t *testing.T) {
	t.Parallel()

	errs := Validate(Normalize(Stage{
		Name:        strings.Repeat("n", 129),
		Identifier:  "deploy-stage",
		Service:     "<+>",
		Environment: "<+input>",
	}))
	want := map[string]string{
		"name":       "Use at most 128 characters.",
		"identifier": "Start with a letter or underscore and use only letters, numbers, underscores or $.",
		"service":    "Enter an expression.",
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("Validate mismatch (-want +got):\n%s", diff)
	}
}
