package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/barradesonido/bsops/internal/cache"
	"github.com/barradesonido/bsops/internal/config"
	"github.com/barradesonido/bsops/internal/database/postgres"
	"github.com/barradesonido/bsops/internal/frontend"
	"github.com/barradesonido/bsops/internal/server"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront API server",
	Long: `Serves the storefront read API:

  GET /api/v1/ranking           scored product ranking (cached)
  GET /api/v1/products/{slug}   single product by slug
  GET /ping                     health check`,
	RunE: runServe,
}

var (
	serveAddr    string
	serveNoCache bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "Disable the Redis response cache")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Storefront.Addr
	}

	client, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	log := getLogger()
	repo := postgres.NewProductRepo(client)

	ranking := frontend.NewRanking(
		frontend.NewQuerier(repo, log),
		frontend.NewScoreGenerator(time.Now().UnixNano(), log),
		frontend.NewFormatter(log),
		log,
	)

	var cacheClient cache.Client
	if !serveNoCache {
		redisClient, err := cache.NewRedisClient(cfg.Cache.Addr, os.Getenv(cfg.Cache.PasswordEnv), cfg.Cache.DB)
		if err != nil {
			color.Yellow("Warning: cache unavailable, serving without it: %v", err)
		} else {
			cacheClient = redisClient
			defer redisClient.Close()
		}
	}

	srv := server.New(server.Options{
		Addr:     addr,
		Ranking:  ranking,
		Repo:     repo,
		Cache:    cacheClient,
		CacheTTL: time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		Log:      log,
	})

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe()
	}()

	color.Green("✓ Storefront API listening on %s", addr)
	fmt.Println("Press Ctrl+C to stop")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-done:
		return err
	case <-sig:
		fmt.Println("\nShutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		color.Green("✓ Server stopped")
		return nil
	}
}
