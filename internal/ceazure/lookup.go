package ceazure

import (
	"context"
	"slices"

	"github.com/ngconsole/ngconsole/internal/ngclient"
	"golang.org/x/sync/errgroup"
)

const lookupPageSize = 100

type tenantLookup struct {
	duplicate  bool
	hasBilling bool
	exports    []BillingExportSpec
}

// lookupTenant runs the three independent Overview checks concurrently. self
// is the identifier of the connector being edited and is not counted as an
// existing billing connector.
func lookupTenant(ctx context.Context, backend Backend, tenantID, subscriptionID, self string) (tenantLookup, error) {
	var out tenantLookup
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		page, err := backend.ListConnectors(ctx, ngclient.ConnectorFilter{
			Types: []string{ngclient.ConnectorTypeCEAzure},
			CCMConnectorFilter: &ngclient.CCMConnectorFilter{
				AzureTenantID:       tenantID,
				AzureSubscriptionID: subscriptionID,
			},
		}, ngclient.PageRequest{PageSize: 1})
		if err != nil {
			return err
		}
		out.duplicate = page.PageItemCount > 0
		return nil
	})

	g.Go(func() error {
		exports, err := backend.ListAzureBillingExports(ctx, tenantID, "")
		if err != nil {
			return err
		}
		converted := make([]BillingExportSpec, 0, len(exports))
		for _, e := range exports {
			converted = append(converted, billingExportFromAPI(e))
		}
		out.exports = converted
		return nil
	})

	g.Go(func() error {
		page, err := backend.ListConnectors(ctx, ngclient.ConnectorFilter{
			Types: []string{ngclient.ConnectorTypeCEAzure},
			CCMConnectorFilter: &ngclient.CCMConnectorFilter{
				AzureTenantID:   tenantID,
				FeaturesEnabled: []string{string(FeatureBilling)},
			},
		}, ngclient.PageRequest{PageSize: lookupPageSize})
		if err != nil {
			return err
		}
		out.hasBilling = slices.ContainsFunc(page.Content, func(c ngclient.ConnectorResponse) bool {
			if c.Connector.Identifier == self && self != "" {
				return false
			}
			spec, err := c.Connector.DecodeCEAzureSpec()
			return err == nil && slices.Contains(spec.FeaturesEnabled, string(FeatureBilling))
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return tenantLookup{}, err
	}
	return out, nil
}
