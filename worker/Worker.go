package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	ConfigService "grafana-trmnl-agent/service/config"
	GrafanaService "grafana-trmnl-agent/service/grafana"
	TrmnlService "grafana-trmnl-agent/service/trmnl"
	"grafana-trmnl-agent/service/transformers"
)

// Worker drives the push strategy: fetch the configured panel, transform
// its data, and send the merge variables to the TRMNL webhook.
type Worker struct {
	Config         *ConfigService.Config
	GrafanaService *GrafanaService.GrafanaService
	TrmnlService   *TrmnlService.TrmnlService
	Registry       *transformers.Registry
}

func CreateWorker(config *ConfigService.Config, grafanaService *GrafanaService.GrafanaService, trmnlService *TrmnlService.TrmnlService) *Worker {
	return &Worker{
		Config:         config,
		GrafanaService: grafanaService,
		TrmnlService:   trmnlService,
		Registry:       transformers.NewRegistry(),
	}
}

// Run performs one fetch-transform-send cycle. Failures are pushed to the
// device as error payloads where possible, and returned.
func (worker *Worker) Run(ctx context.Context) error {
	panelConfig := worker.Config.Panel

	logrus.Infof("fetching dashboard %s, panel %d", panelConfig.DashboardUID, panelConfig.PanelID)
	dashboard, err := worker.GrafanaService.GetDashboard(ctx, panelConfig.DashboardUID)
	if err != nil {
		worker.logAvailableDashboards(ctx)
		worker.sendError(ctx, err.Error(), "Grafana Error")
		return err
	}

	panel := dashboard.PanelByID(panelConfig.PanelID)
	if panel == nil {
		for _, p := range dashboard.Panels {
			logrus.Errorf("available panel: id=%d type=%s title=%q", p.ID, p.Type, p.Title)
		}
		err := fmt.Errorf("panel %d not found in dashboard %s", panelConfig.PanelID, panelConfig.DashboardUID)
		worker.sendError(ctx, err.Error(), "Configuration Error")
		return err
	}
	logrus.Infof("found panel %q (type %s)", panel.Title, panel.Type)

	result, err := worker.GrafanaService.QueryPanel(ctx, panel, panelConfig.TimeFrom, panelConfig.TimeTo, panelConfig.Variables)
	if err != nil {
		worker.sendError(ctx, err.Error(), panel.Title)
		return err
	}

	if result.Error != "" {
		logrus.Errorf("query error: %s", result.Error)
		worker.sendError(ctx, result.Error, panel.Title)
		return fmt.Errorf("query error: %s", result.Error)
	}

	transformer := worker.Registry.Get(panel.Type)
	mergeVariables := transformer.Transform(panel, result, transformers.Options{
		LabelKey: panelConfig.Label,
		Timezone: panelConfig.Timezone,
	})

	return worker.TrmnlService.Send(ctx, mergeVariables)
}

// Start runs cycles on the configured interval until the context ends.
func (worker *Worker) Start(ctx context.Context, interval time.Duration) {
	logrus.Infof("starting continuous mode with %s interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := worker.Run(ctx); err != nil {
			logrus.Errorf("cycle failed: %v", err)
		}
		select {
		case <-ctx.Done():
			logrus.Info("worker stopped")
			return
		case <-ticker.C:
		}
	}
}

func (worker *Worker) sendError(ctx context.Context, message string, title string) {
	if err := worker.TrmnlService.SendError(ctx, message, title); err != nil {
		logrus.Errorf("failed to push error payload: %v", err)
	}
}

// logAvailableDashboards lists what the Grafana instance actually serves,
// to make a misconfigured uid easy to spot in the logs.
func (worker *Worker) logAvailableDashboards(ctx context.Context) {
	hits, err := worker.GrafanaService.SearchDashboards(ctx, GrafanaService.SearchParams{
		Type:  "dash-db",
		Limit: 20,
	})
	if err != nil {
		logrus.Debugf("dashboard search failed: %v", err)
		return
	}
	for _, hit := range hits {
		logrus.Errorf("available dashboard: uid=%s title=%q", hit.UID, hit.Title)
	}
}
