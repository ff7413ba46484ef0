package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/mumpsdb/pkg/authz"
	"github.com/cuemby/mumpsdb/pkg/config"
	"github.com/cuemby/mumpsdb/pkg/embed"
	"github.com/cuemby/mumpsdb/pkg/executor"
	"github.com/cuemby/mumpsdb/pkg/log"
	"github.com/cuemby/mumpsdb/pkg/metrics"
	"github.com/cuemby/mumpsdb/pkg/persistence"
	"github.com/cuemby/mumpsdb/pkg/replication"
	"github.com/cuemby/mumpsdb/pkg/server"
	"github.com/cuemby/mumpsdb/pkg/store"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "mumpsdb",
	Short:   "A hierarchical in-memory key/value server with a MUMPS-flavored command protocol",
	Version: Version,
	RunE:    runServer,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("mumpsdb version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to the config properties file")
	rootCmd.PersistentFlags().String("metrics-addr", "127.0.0.1:9091", "Prometheus metrics listen address")

	rootCmd.Flags().BoolP("socket", "s", false, "Start the socket listener only")
	rootCmd.Flags().BoolP("console", "c", false, "Start an interactive console only")
	rootCmd.Flags().BoolP("both", "b", false, "Start both the socket listener and console (default)")

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

func runServer(cmd *cobra.Command, _ []string) error {
	wantSocket, _ := cmd.Flags().GetBool("socket")
	wantConsole, _ := cmd.Flags().GetBool("console")
	wantBoth, _ := cmd.Flags().GetBool("both")
	if !wantSocket && !wantConsole && !wantBoth {
		wantBoth = true
	}
	if wantBoth {
		wantSocket = true
		wantConsole = true
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	aof, err := persistence.NewAOFWriter(cfg.AOFFile, 4096)
	if err != nil {
		return fmt.Errorf("open aof: %w", err)
	}
	s := store.New(store.WithCacheSize(cfg.CacheMaxSize))
	metrics.RegisterComponent("store", true, "")

	mgr := persistence.NewWithAOF(s, cfg.SnapshotFile, cfg.AOFFile, aof, cfg.AutoSaveInterval)
	metrics.RegisterComponent("persistence", false, "replaying aof")
	if err := mgr.Bootstrap(); err != nil {
		return fmt.Errorf("bootstrap from snapshot/aof: %w", err)
	}
	// Only now does the store start recording new mutations to the AOF —
	// replaying the existing log above must not re-append its own records.
	s.SetJournal(aof)
	broker := replication.NewBroker(1024)
	s.SetNotifier(broker)
	mgr.Start()
	metrics.SetVersion(Version)
	metrics.UpdateComponent("persistence", true, "")

	exec := newExecutor(s, mgr, broker, cfg)

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	go func() {
		http.Handle("/metrics", metrics.Handler())
		http.Handle("/health", metrics.HealthHandler())
		http.Handle("/ready", metrics.ReadyHandler())
		http.Handle("/live", metrics.LivenessHandler())
		if err := http.ListenAndServe(metricsAddr, nil); err != nil && err != http.ErrServerClosed {
			log.WithComponent("server").Warn().Err(err).Msg("metrics listener stopped")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var sock *server.SocketServer
	errCh := make(chan error, 1)
	if wantSocket {
		sock = server.NewSocketServer(exec)
		go func() {
			if err := sock.Start(ctx, cfg.ServerPort); err != nil {
				errCh <- err
			}
		}()
	}
	if wantConsole {
		go func() {
			server.RunConsole(exec)
			cancel()
		}()
	}

	select {
	case <-sigCh:
		log.WithComponent("server").Info().Msg("shutdown signal received")
	case err := <-errCh:
		cancel()
		mgr.Stop()
		return fmt.Errorf("socket server failed: %w", err)
	case <-ctx.Done():
	}

	cancel()
	time.Sleep(100 * time.Millisecond)
	mgr.Stop()
	return nil
}

func newExecutor(s *store.GlobalStore, mgr *persistence.Manager, broker *replication.Broker, cfg config.Config) *executor.Executor {
	exec := executor.NewExecutor(s)
	exec.Persister = mgr
	exec.Replica = broker
	exec.Authz = authz.AllowAll{}
	exec.DefaultTopK = cfg.SearchDefaultTopK
	exec.SimilarityThreshold = cfg.SimilarityThreshold
	if cfg.AutoEmbeddingEnabled && cfg.EmbeddingEndpoint != "" {
		exec.Embedder = embed.NewHTTPEmbedder(cfg.EmbeddingEndpoint, cfg.EmbeddingModel)
	} else {
		exec.Embedder = embed.Noop{}
	}
	return exec
}
