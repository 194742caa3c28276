package main

import (
	"campsite_notification_bot/internal/infra/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Log.WithError(err).Fatal("campwatch stopped")
	}
}
