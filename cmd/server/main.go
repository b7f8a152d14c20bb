// cmd/server/main.go
package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/n0remac/desktop-bridge/internal/httpapi"
	"github.com/n0remac/desktop-bridge/internal/mediabridge"
	"github.com/n0remac/desktop-bridge/internal/signaling"
)

func main() {
	host := flag.String("host", envOr("HOST", "0.0.0.0"), "address to bind")
	port := flag.String("port", envOr("PORT", "3000"), "port to listen on")
	publicDir := flag.String("public", envOr("PUBLIC_DIR", "public"), "static asset directory served as fallback")
	flag.Parse()

	logger := log.New(os.Stdout, "[gateway] ", log.LstdFlags)

	if err := httpapi.EnsurePublicDir(*publicDir); err != nil {
		log.Fatalf("create public dir: %v", err)
	}

	registry := signaling.NewRegistry()
	service := signaling.NewService(registry, nil, logger)
	bridge := mediabridge.NewBridge(service, logger)
	service.SetBridge(bridge)

	router := httpapi.NewRouter(service, *publicDir, logger)

	addr := *host + ":" + *port
	logger.Printf("[server] listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
