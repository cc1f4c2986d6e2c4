// Package ceazure implements the wizard that creates or edits a CE-Azure
// cloud cost connector.
package ceazure

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/ngconsole/ngconsole/internal/ngclient"
	"github.com/ngconsole/ngconsole/internal/wizard"
)

const Kind wizard.Kind = "ce_azure"

type Feature string

const (
	FeatureBilling      Feature = "BILLING"
	FeatureVisibility   Feature = "VISIBILITY"
	FeatureOptimization Feature = "OPTIMIZATION"
)

// Features lists every feature in display order.
var Features = []Feature{FeatureBilling, FeatureVisibility, FeatureOptimization}

func ParseFeature(raw string) (Feature, bool) {
	f := Feature(strings.ToUpper(strings.TrimSpace(raw)))
	return f, slices.Contains(Features, f)
}

// FeatureSet is the selection of connector features. VISIBILITY is part of
// every set and cannot be removed.
type FeatureSet struct {
	billing      bool
	optimization bool
}

func NewFeatureSet(features ...Feature) FeatureSet {
	var s FeatureSet
	for _, f := range features {
		s = s.Add(f)
	}
	return s
}

func (s FeatureSet) Add(f Feature) FeatureSet {
	switch f {
	case FeatureBilling:
		s.billing = true
	case FeatureOptimization:
		s.optimization = true
	}
	return s
}

// Remove drops f from the set. Removing VISIBILITY is a no-op.
func (s FeatureSet) Remove(f Feature) FeatureSet {
	switch f {
	case FeatureBilling:
		s.billing = false
	case FeatureOptimization:
		s.optimization = false
	}
	return s
}

func (s FeatureSet) Has(f Feature) bool {
	switch f {
	case FeatureBilling:
		return s.billing
	case FeatureVisibility:
		return true
	case FeatureOptimization:
		return s.optimization
	default:
		return false
	}
}

// Slice returns the features in display order.
func (s FeatureSet) Slice() []Feature {
	out := make([]Feature, 0, len(Features))
	for _, f := range Features {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

type BillingExportSpec struct {
	StorageAccountName string `json:"storageAccountName"`
	ContainerName      string `json:"containerName"`
	DirectoryName      string `json:"directoryName"`
	ReportName         string `json:"reportName"`
	SubscriptionID     string `json:"subscriptionId"`
}

func billingExportFromAPI(in ngclient.AzureBillingExportSpec) BillingExportSpec {
	return BillingExportSpec(in)
}

func (b BillingExportSpec) api() *ngclient.AzureBillingExportSpec {
	out := ngclient.AzureBillingExportSpec(b)
	return &out
}

type Spec struct {
	TenantID          string             `json:"tenantId"`
	SubscriptionID    string             `json:"subscriptionId"`
	FeaturesEnabled   []Feature          `json:"featuresEnabled"`
	BillingExportSpec *BillingExportSpec `json:"billingExportSpec,omitempty"`
}

// Payload accumulates the connector across wizard steps. Steps work on a
// Clone of the previous payload and only overlay their own fields.
type Payload struct {
	Name        string            `json:"name"`
	Identifier  string            `json:"identifier"`
	Description string            `json:"description,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Spec        Spec              `json:"spec"`

	IsEditMode             bool                `json:"isEditMode"`
	HasBilling             bool                `json:"hasBilling"`
	ExistingBillingExports []BillingExportSpec `json:"existingBillingExports,omitempty"`
	DuplicateAdvisory      bool                `json:"duplicateAdvisory,omitempty"`
	Saved                  bool                `json:"saved,omitempty"`
}

func (Payload) WizardKind() wizard.Kind { return Kind }

// NewPayload returns the payload of a new connector.
func NewPayload() Payload {
	return Payload{Spec: Spec{FeaturesEnabled: NewFeatureSet().Slice()}}
}

// FromConnector pre-fills the payload for editing an existing connector.
func FromConnector(connector ngclient.ConnectorInfo) (Payload, error) {
	if connector.Type != ngclient.ConnectorTypeCEAzure {
		return Payload{}, fmt.Errorf("connector %s has type %s, want %s", connector.Identifier, connector.Type, ngclient.ConnectorTypeCEAzure)
	}
	spec, err := connector.DecodeCEAzureSpec()
	if err != nil {
		return Payload{}, fmt.Errorf("decode connector spec: %w", err)
	}
	features := NewFeatureSet()
	for _, raw := range spec.FeaturesEnabled {
		if f, ok := ParseFeature(raw); ok {
			features = features.Add(f)
		}
	}
	p := Payload{
		Name:        connector.Name,
		Identifier:  connector.Identifier,
		Description: connector.Description,
		Tags:        maps.Clone(connector.Tags),
		Spec: Spec{
			TenantID:        spec.TenantID,
			SubscriptionID:  spec.SubscriptionID,
			FeaturesEnabled: features.Slice(),
		},
		IsEditMode: true,
	}
	if spec.BillingExportSpec != nil {
		b := billingExportFromAPI(*spec.BillingExportSpec)
		p.Spec.BillingExportSpec = &b
	}
	return p, nil
}

func (p Payload) Features() FeatureSet {
	return NewFeatureSet(p.Spec.FeaturesEnabled...)
}

// Clone returns a deep copy.
func (p Payload) Clone() Payload {
	out := p
	out.Tags = maps.Clone(p.Tags)
	out.Spec.FeaturesEnabled = slices.Clone(p.Spec.FeaturesEnabled)
	if p.Spec.BillingExportSpec != nil {
		b := *p.Spec.BillingExportSpec
		out.Spec.BillingExportSpec = &b
	}
	out.ExistingBillingExports = slices.Clone(p.ExistingBillingExports)
	return out
}

// Connector builds the connector sent to the backend.
func (p Payload) Connector() (ngclient.ConnectorInfo, error) {
	features := p.Features()
	spec := ngclient.CEAzureSpec{
		TenantID:       p.Spec.TenantID,
		SubscriptionID: p.Spec.SubscriptionID,
	}
	for _, f := range features.Slice() {
		spec.FeaturesEnabled = append(spec.FeaturesEnabled, string(f))
	}
	if features.Has(FeatureBilling) && p.Spec.BillingExportSpec != nil {
		spec.BillingExportSpec = p.Spec.BillingExportSpec.api()
	}
	raw, err := json.Marshal(spec)
	if err != nil {
		return ngclient.ConnectorInfo{}, fmt.Errorf("encode connector spec: %w", err)
	}
	return ngclient.ConnectorInfo{
		Name:        p.Name,
		Identifier:  p.Identifier,
		Description: p.Description,
		Tags:        maps.Clone(p.Tags),
		Type:        ngclient.ConnectorTypeCEAzure,
		Spec:        raw,
	}, nil
}

var (
	identifierLeading = regexp.MustCompile(`^[0-9\-$]+`)
	identifierSpaces  = regexp.MustCompile(`\s+`)
	identifierInvalid = regexp.MustCompile(`[^0-9a-zA-Z_$]`)
)

// IdentifierFromName derives an identifier from a display name.
func IdentifierFromName(name string) string {
	id := identifierLeading.ReplaceAllString(strings.TrimSpace(name), "")
	id = identifierSpaces.ReplaceAllString(strings.TrimSpace(id), "_")
	id = identifierInvalid.ReplaceAllString(id, "")
	if len(id) > 128 {
		id = id[:128]
	}
	return id
}

// ParseTags reads a comma separated "key:value" list. Keys without a value
// are kept with an empty value.
func ParseTags(raw string) map[string]string {
	var out map[string]string
	for _, part := range strings.Split(raw, ",") {
		key, value, _ := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}

func FormatTags(tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if tags[k] == "" {
			parts = append(parts, k)
			continue
		}
		parts = append(parts, k+":"+tags[k])
	}
	return strings.Join(parts, ", ")
}
