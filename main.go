package main

import (
	"flag"
	"log"

	"mirrorctl/webservice"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to the YAML config file")
	flag.Parse()

	config, err := webservice.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	wm, err := webservice.NewWebMaster(config)
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}

	log.Printf("Listening on %s", config.HTTPAddr)
	if err := wm.Run(config.HTTPAddr); err != nil {
		log.Fatalf("HTTP server exited: %v", err)
	}
}
