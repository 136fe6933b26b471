package main

import (
	app "creative-engine/internal/app/server"
	"creative-engine/internal/config"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg.Server.LogLevel)
	app.Run(cfg)
}
