package main

import (
	"net/http"

	"expensehub-server/src/api"
	"expensehub-server/src/config"
	"expensehub-server/src/db"
	"expensehub-server/src/receipts"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	// Connect to database
	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logrus.WithError(err).Fatal("migrations failed")
	}

	db.InitCache()

	receiptClient, err := receipts.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		logrus.WithError(err).Fatal("receipt storage init failed")
	}
	if receiptClient == nil {
		logrus.Warn("receipt storage not configured, uploads disabled")
	}

	// Router
	router := api.NewRouter(pool, cfg, receiptClient)

	logrus.WithField("port", cfg.Port).Info("API server running")
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}
