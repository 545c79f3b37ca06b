package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	ApiService "grafana-trmnl-agent/service/api"
	ConfigService "grafana-trmnl-agent/service/config"
	GrafanaService "grafana-trmnl-agent/service/grafana"
	TrmnlService "grafana-trmnl-agent/service/trmnl"
	WorkerFactory "grafana-trmnl-agent/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	once := flag.Bool("once", false, "run a single fetch-and-send cycle and exit")
	flag.Parse()

	config, err := ConfigService.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	setupLogging(config.Agent.LogLevel)
	logrus.Info("TRMNL Grafana data service starting...")

	// Polling strategy: serve merge variables over HTTP and let TRMNL fetch.
	if config.Server.Enabled {
		apiService := ApiService.CreateApiService()
		if err := apiService.ListenAndServe(config.Server.Listen); err != nil {
			logrus.Fatalf("server failed: %v", err)
		}
		return
	}

	// Push strategy: fetch on an interval and send to the TRMNL webhook.
	grafanaService := GrafanaService.CreateGrafanaService(config.Grafana.URL, config.Grafana.Token)
	trmnlService := TrmnlService.CreateTrmnlService(config.Trmnl.WebhookURL)
	worker := WorkerFactory.CreateWorker(config, grafanaService, trmnlService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logrus.Infof("configured for dashboard=%s panel=%d, time range %s..%s",
		config.Panel.DashboardUID, config.Panel.PanelID, config.Panel.TimeFrom, config.Panel.TimeTo)

	if *once {
		if err := worker.Run(ctx); err != nil {
			os.Exit(1)
		}
		return
	}

	runInterval, err := time.ParseDuration(config.Agent.RunInterval)
	if err != nil {
		logrus.Fatalf("failed to parse runInterval: %v", err)
	}

	worker.Start(ctx, runInterval)
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	switch level {
	case "DEBUG":
		logrus.SetLevel(logrus.DebugLevel)
	case "WARN":
		logrus.SetLevel(logrus.WarnLevel)
	case "ERROR":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}
