package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/app"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/config"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := config.Load(os.Getenv)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := app.Run(ctx, app.Config{Logger: telemetry.WrapLogger(log.Default()), Server: settings}); err != nil {
		log.Fatalf("%v", err)
	}
}
