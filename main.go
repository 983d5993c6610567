package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"hotelprices/cmd"
	"hotelprices/logger"
)

func main() {
	log := logger.Logger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, log); err != nil {
		log.WithComponent("main").WithError(err).Error("hotelprices failed")
		stop()
		os.Exit(1)
	}
}
