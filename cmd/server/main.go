package main

import (
	"context"
	"log"

	"github.com/dkorchagin/activation/internal/server"
	"github.com/dkorchagin/activation/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	app.Run(context.Background())
}
