// Command walletd runs the Hoosat wallet background service: the message
// router, session manager, and DApp RPC dispatcher behind a local
// WebSocket endpoint the extension contexts connect to.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/config"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
