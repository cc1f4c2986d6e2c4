package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ngconsole/ngconsole/internal/config"
	"github.com/ngconsole/ngconsole/internal/ngclient"
	"github.com/spf13/cobra"
)

var checkBackendCmd = &cobra.Command{
	Use:   "check-backend",
	Short: "Verify the backend URL and API key by listing one pipeline.",
	Long: `Verify the backend URL and API key by listing one pipeline.

Exits 2 when the configuration or API key cannot be loaded and 3 when the
backend is unreachable or rejects the request.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return configError(err)
		}
		client, err := newBackendClient(cmd.Context(), cfg)
		if err != nil {
			return configError(err)
		}
		scope := ngclient.Scope{OrgIdentifier: cfg.OrgIdentifier, ProjectIdentifier: cfg.ProjectIdentifier}
		return checkBackend(cmd.Context(), client, scope, cmd.OutOrStdout())
	},
}

type pipelineLister interface {
	ListPipelines(ctx context.Context, params ngclient.ListPipelinesParams, filter ngclient.PipelineFilter) (ngclient.Page[ngclient.PipelineSummary], error)
}

func checkBackend(ctx context.Context, api pipelineLister, scope ngclient.Scope, out io.Writer) error {
	page, err := api.ListPipelines(ctx, ngclient.ListPipelinesParams{Scope: scope, Size: 1}, ngclient.PipelineFilter{})
	if err != nil {
		return fmt.Errorf("backend check: %w", err)
	}
	fmt.Fprintf(out, "backend reachable: %d pipelines in %s/%s\n", page.TotalItems, scope.OrgIdentifier, scope.ProjectIdentifier)
	return nil
}
