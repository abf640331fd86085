package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/mid0o/minesweeper/config"
	"github.com/mid0o/minesweeper/db"
	"github.com/mid0o/minesweeper/server"
	"github.com/mid0o/minesweeper/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := db.InitStore(cfg.DB.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.DB.Close()
	if err := store.InitializeTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	srv, err := server.SpawnServer(cfg.Server.Name, cfg.Server.Port, store)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	if cfg.Auth.TokenSecret != "" {
		srv.ConfigureAuth([]byte(cfg.Auth.TokenSecret), time.Duration(cfg.Auth.TokenTTL))
	}
	fmt.Printf("%s started at %d\n", srv.Name, srv.Port)

	log.Fatal(web.Serve(cfg.Web.Addr))
}
