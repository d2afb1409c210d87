// Package dashboardcmder provides the dashboard command: serve a
// read-only JSON view of the pipeline and attestation index.
package dashboardcmder

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/composable-science/cli/pkg/config"
	"github.com/composable-science/cli/pkg/dashboard"
	"github.com/composable-science/cli/pkg/logger"
	"github.com/composable-science/cli/pkg/pipeline"
	"github.com/composable-science/cli/pkg/project"
	"github.com/composable-science/cli/pkg/store"
)

const dashboardLongDesc string = `Serve a read-only JSON dashboard for the pipeline.

Endpoints:
  GET /ping              health check
  GET /api/pipeline      the dependency graph in build order
  GET /api/status        per-step staleness against the working tree
  GET /api/attestations  the local attestation index, newest first

Examples:
  cs dashboard
  cs dashboard --listen :9000`

const dashboardShortDesc string = "Serve a JSON view of the pipeline"

func NewDashboardCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: dashboardShortDesc,
		Long:  dashboardLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			jsonLogs, _ := cmd.Flags().GetBool("json")
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runDashboard(listen, configDir, debug, jsonLogs)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (defaults to dashboard.listen config)")

	return cmd
}

func runDashboard(listen, configDir string, debug, jsonLogs bool) error {
	log := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(jsonLogs),
		logger.WithPretty(!jsonLogs),
	)

	proj, err := project.Load("")
	if err != nil {
		return pipeline.Exit(pipeline.ExitUsage, err)
	}

	v, err := config.InitViper(configDir)
	if err != nil {
		return err
	}
	if listen == "" {
		listen = v.GetString("dashboard.listen")
	}

	// The index is optional: a fresh project has no attestations yet.
	var idx *store.Store
	if target, err := proj.Target(); err == nil {
		dbPath := v.GetString("storage.sqlite_path")
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(target, dbPath)
		}
		if opened, err := store.Open(dbPath); err == nil {
			idx = opened
			defer idx.Close()
		} else {
			log.Warn("attestation index unavailable", "error", err)
		}
	}

	evaluator := pipeline.NewEvaluator(proj.Resolver)
	server := dashboard.NewServer(dashboard.Config{ListenAddr: listen}, proj.Graph, evaluator, idx, log)

	fmt.Printf("dashboard listening on %s\n", listen)
	return server.Run()
}
