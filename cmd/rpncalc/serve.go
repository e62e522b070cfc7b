package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lemonberrylabs/rpncalc/pkg/api"
	grpcapi "github.com/lemonberrylabs/rpncalc/pkg/api/grpc"
	"github.com/lemonberrylabs/rpncalc/pkg/calc"
	"github.com/lemonberrylabs/rpncalc/pkg/store"
	"github.com/lemonberrylabs/rpncalc/web"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST, gRPC and web interfaces",
		RunE:  serve,
	}
	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	cmd.Flags().Duration("retention", 0, "How long to keep history (default 24h, env HISTORY_RETENTION)")
	return cmd
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.Port = v
	}
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		cfg.GRPCPort = v
	}
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.Host = v
	}
	if v, _ := cmd.Flags().GetDuration("retention"); v != 0 {
		cfg.HistoryRetention = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if history == nil {
		// The API and web UI read back what they record.
		history = store.New()
	}
	defer history.Close()

	cache := calc.NewCache(cfg.CacheSize)
	metrics := api.NewMetrics("rpncalc")
	server := api.New(history, cache, metrics)

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: web UI disabled due to template error: %v", r)
			}
		}()
		ui := web.New(history, server.Evaluate)
		ui.Register(server.App())
	}()

	var retention *store.Retention
	if cfg.HistoryRetention > 0 {
		retention = store.NewRetention(history, cfg.HistoryRetention, cfg.PruneInterval)
		if err := retention.Start(); err != nil {
			return err
		}
		log.Printf("Pruning history older than %s every %s", cfg.HistoryRetention, cfg.PruneInterval)
	}

	grpcServer := grpcapi.New(history, cache, metrics)
	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr())
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			log.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down rpncalc...")
		if err := retention.Stop(); err != nil {
			log.Printf("Error stopping retention: %v", err)
		}
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	if cfg.HistoryDB != "" {
		log.Printf("History database: %s", cfg.HistoryDB)
	} else {
		log.Printf("History kept in memory (no --history-db specified)")
	}
	log.Printf("rpncalc listening on %s", cfg.Addr())
	return server.Listen(cfg.Addr())
}
