package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/atolye/internal/logging"
	"github.com/dmitrijs2005/atolye/internal/server"
	"github.com/dmitrijs2005/atolye/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
