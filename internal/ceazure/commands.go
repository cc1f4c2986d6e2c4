package ceazure

import (
	"fmt"
	"slices"
	"strings"
)

type CommandKey string

const (
	CommandRegisterApp   CommandKey = "register_app"
	CommandStorageReader CommandKey = "storage_blob_data_reader"
	CommandContributor   CommandKey = "contributor"
)

// Command is one Azure CLI snippet the user runs to grant access.
type Command struct {
	Key    CommandKey
	Title  string
	Script string
}

type CommandParams struct {
	AppID          string
	StorageAccount string
	SubscriptionID string
}

func (p CommandParams) withPlaceholders() CommandParams {
	if strings.TrimSpace(p.AppID) == "" {
		p.AppID = "<app-id>"
	}
	if strings.TrimSpace(p.StorageAccount) == "" {
		p.StorageAccount = "<storage-account-name>"
	}
	if strings.TrimSpace(p.SubscriptionID) == "" {
		p.SubscriptionID = "<subscription-id>"
	}
	return p
}

// ProvisioningSet returns the features that still need access granted. When
// the tenant already has a billing connector, billing and visibility access
// exist and only the remaining features are provisioned.
func ProvisioningSet(p Payload) []Feature {
	selected := p.Features().Slice()
	if !p.HasBilling {
		return selected
	}
	return slices.DeleteFunc(selected, func(f Feature) bool {
		return f == FeatureBilling || f == FeatureVisibility
	})
}

// Commands returns the snippets needed for the given features:
// BILLING or VISIBILITY register the app and grant blob read on the export
// storage account, OPTIMIZATION grants Contributor on the subscription.
func Commands(features []Feature, params CommandParams) []Command {
	params = params.withPlaceholders()
	var out []Command
	if slices.Contains(features, FeatureBilling) || slices.Contains(features, FeatureVisibility) {
		out = append(out,
			Command{
				Key:    CommandRegisterApp,
				Title:  "Register the application in your tenant",
				Script: fmt.Sprintf("az ad sp create --id %s", params.AppID),
			},
			Command{
				Key:   CommandStorageReader,
				Title: "Assign the Storage Blob Data Reader role on the export storage account",
				Script: fmt.Sprintf("SCOPE=`az storage account show --name %s --query \"id\" | xargs`\n"+
					"az role assignment create --assignee %s --role 'Storage Blob Data Reader' --scope $SCOPE",
					params.StorageAccount, params.AppID),
			},
		)
	}
	if slices.Contains(features, FeatureOptimization) {
		out = append(out, Command{
			Key:    CommandContributor,
			Title:  "Assign the Contributor role on the subscription",
			Script: fmt.Sprintf("az role assignment create --assignee %s --role 'Contributor' --scope /subscriptions/%s", params.AppID, params.SubscriptionID),
		})
	}
	return out
}
