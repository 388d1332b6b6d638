package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/openclaw/qrform/api"
	"github.com/openclaw/qrform/config"
	"github.com/openclaw/qrform/form"
	"github.com/openclaw/qrform/metrics"
	"github.com/openclaw/qrform/render"
	"github.com/openclaw/qrform/session"
	"github.com/openclaw/qrform/store"
)

var version = "v0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "qrform",
		Short: "Text to QR code form with PNG download",
	}

	// --- serve command -------------------------------------------------------
	var configPath string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the QR form web service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	root.AddCommand(serveCmd)

	// --- generate command ----------------------------------------------------
	var genConfig, outDir string
	var terminal bool
	generateCmd := &cobra.Command{
		Use:   "generate [text]",
		Short: "Generate a QR code and save it as qrcode.png",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), genConfig, args[0], outDir, terminal, cmd.OutOrStdout())
		},
	}
	generateCmd.Flags().StringVarP(&genConfig, "config", "c", "config.yaml", "Path to config file")
	generateCmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to write qrcode.png into")
	generateCmd.Flags().BoolVar(&terminal, "terminal", false, "Print the QR code to the terminal instead of saving")
	root.AddCommand(generateCmd)

	// --- status command ------------------------------------------------------
	var statusAddr string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Check the service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(statusAddr+"/status", cmd.OutOrStdout())
		},
	}
	statusCmd.Flags().StringVar(&statusAddr, "addr", "http://localhost:8556", "Service HTTP address")
	root.AddCommand(statusCmd)

	// --- history command -----------------------------------------------------
	var historyAddr string
	var historyLimit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(fmt.Sprintf("%s/history?limit=%d", historyAddr, historyLimit), cmd.OutOrStdout())
		},
	}
	historyCmd.Flags().StringVar(&historyAddr, "addr", "http://localhost:8556", "Service HTTP address")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries")
	root.AddCommand(historyCmd)

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("qrform %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger: tint for text output, slog JSON
// otherwise.
func newLogger(level, format string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
	}))
}

// runServe is the main service entrypoint that wires all components together.
func runServe(configPath string) error {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Setup logger
	log := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)

	log.Info("starting qrform", "version", version, "port", cfg.Port, "data_dir", cfg.DataDir)

	// 3. Open history store
	var history *store.HistoryStore
	if cfg.History.Enabled {
		if err := cfg.EnsureDataDir(); err != nil {
			return fmt.Errorf("ensure data dir: %w", err)
		}
		history, err = store.NewHistoryStore(cfg.HistoryPath())
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer history.Close()
	}

	// 4. Sessions and metrics
	encoder := render.NewQREncoder()
	sessions := session.NewManager(encoder, cfg.RenderOptions(), cfg.SessionTTL.Duration, cfg.MaxSessions, log)
	mets := metrics.New(sessions.Len)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.SessionTTL.Duration > 0 {
		session.StartSweeper(ctx, sessions, cfg.SessionTTL.Duration/2, log)
	}

	// 5. Start HTTP server
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewRouter(&api.Server{
			Sessions:  sessions,
			Encoder:   encoder,
			Options:   cfg.RenderOptions(),
			History:   history,
			Metrics:   mets,
			Log:       log,
			Version:   version,
			StartTime: time.Now(),
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("form is ready", "url", fmt.Sprintf("http://localhost:%d/", cfg.Port))

	// 6. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	log.Info("goodbye")
	return nil
}

// runGenerate drives a single form controller from the command line: submit
// the text, then download into outDir.
func runGenerate(ctx context.Context, configPath, text, outDir string, terminal bool, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	if ctx == nil {
		ctx = context.Background()
	}

	if terminal {
		if err := form.Validate(text); err != nil {
			return errors.New(form.MsgEmptyInput)
		}
		s, err := render.Terminal(text, cfg.QR.Level)
		if err != nil {
			log.Debug("terminal render failed", "error", err)
			return errors.New(form.MsgEncodeFailure)
		}
		fmt.Fprint(out, s)
		return nil
	}

	ctrl := form.NewController(render.NewQREncoder(), render.NewSurface(cfg.QR.Width), cfg.RenderOptions(), log)
	if err := ctrl.Submit(ctx, text); err != nil {
		log.Debug("generate failed", "error", err)
		return errors.New(ctrl.State().Error)
	}

	saver := form.FileSaver{Dir: outDir}
	if _, err := ctrl.Download(saver); err != nil {
		return err
	}
	fmt.Fprintln(out, saver.Path(form.DownloadName))
	return nil
}

// runGet prints the body of a GET request against the running service.
func runGet(url string, out io.Writer) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to reach service at %s: %w", url, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	fmt.Fprintln(out)
	return nil
}
