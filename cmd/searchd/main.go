// Command searchd serves game-tree analysis over HTTP and websockets.
//
// Usage:
//
//	searchd [-config path] [-addr :8080] [-no-history]
//	searchd db init|delete|query [flags]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/timclh/Chess-v1-sub000/cmd/searchd/cli"
	"github.com/timclh/Chess-v1-sub000/server"
)

var engineVariants = []string{"chess", "gomoku"}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("[searchd] db: %v", err)
		}
		return
	}

	configPath := flag.String("config", "", "JSON config file path")
	addr := flag.String("addr", "", "listen address, overrides the config file")
	noHistory := flag.Bool("no-history", false, "disable the SQLite analysis history")
	flag.Parse()

	config, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("[searchd] %v", err)
	}
	if *addr != "" {
		config.ListenAddr = *addr
	}
	configStore := server.NewConfigStore(config)

	var store *server.Store
	if !*noHistory && config.DatabasePath != "" {
		store, err = server.NewStore(config.DatabasePath)
		if err != nil {
			log.Printf("[searchd] history disabled, store unavailable: %v", err)
			store = nil
		} else if err := store.InitDB(); err != nil {
			log.Printf("[searchd] history disabled, schema init failed: %v", err)
			store.Close()
			store = nil
		}
	}

	srv := server.NewServer(configStore, store)
	for _, variant := range engineVariants {
		eng := srv.EngineFor(variant)
		if config.CacheSnapshotPath == "" {
			continue
		}
		if err := eng.Cache().LoadSnapshot(snapshotPath(config.CacheSnapshotPath, variant)); err != nil {
			log.Printf("[searchd] %s cache snapshot not loaded: %v", variant, err)
		}
	}

	var persistOnce sync.Once
	persistOnShutdown := func(reason string) {
		persistOnce.Do(func() {
			log.Printf("[searchd] persisting caches on %s", reason)
			if config.CacheSnapshotPath != "" {
				for variant, eng := range srv.Engines() {
					if err := eng.Cache().SaveSnapshot(snapshotPath(config.CacheSnapshotPath, variant)); err != nil {
						log.Printf("[searchd] %s cache snapshot not saved: %v", variant, err)
					}
				}
			}
			if store != nil {
				if err := store.Close(); err != nil {
					log.Printf("[searchd] store close failed: %v", err)
				}
			}
		})
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Printf("[searchd] panic recovered in main: %v", recovered)
			persistOnShutdown("panic")
		}
	}()
	defer persistOnShutdown("exit")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Hub().Run(ctx.Done())

	httpServer := &http.Server{
		Addr:    config.ListenAddr,
		Handler: srv.Router(),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Printf("[searchd] listening on %s", config.ListenAddr)
	var runErr error
	select {
	case <-sigCtx.Done():
		log.Printf("[searchd] shutdown signal received: %v", sigCtx.Err())
	case err, ok := <-serverErrCh:
		if ok {
			runErr = err
			log.Printf("[searchd] server error: %v", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[searchd] graceful shutdown failed: %v", err)
		if closeErr := httpServer.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.Printf("[searchd] forced close failed: %v", closeErr)
		}
	}

	cancel()
	persistOnShutdown("shutdown")
	if runErr != nil {
		log.Printf("[searchd] exiting after server error: %v", runErr)
	}
}

func snapshotPath(base, variant string) string {
	return fmt.Sprintf("%s.%s", base, variant)
}
