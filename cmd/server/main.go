package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/reach-kraj/DayToday/internal/config"
	"github.com/reach-kraj/DayToday/internal/serverapp"
)

func main() {
	configPath := flag.String("config", "daytoday_config.yml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	app, err := serverapp.New(serverapp.Options{
		Config: cfg,
		Logger: log.Default(),
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("close storage: %v", err)
		}
	}()

	log.Printf("listening on http://localhost%s", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, app.Handler))
}
