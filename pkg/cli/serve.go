package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mockdeck/mockdeck/internal/storage"
	"github.com/mockdeck/mockdeck/pkg/admin"
	"github.com/mockdeck/mockdeck/pkg/cliconfig"
	"github.com/mockdeck/mockdeck/pkg/config"
	"github.com/mockdeck/mockdeck/pkg/engine"
	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/logging"
	"github.com/mockdeck/mockdeck/pkg/registry"
	"github.com/mockdeck/mockdeck/pkg/store"
	"github.com/mockdeck/mockdeck/pkg/store/file"
)

type serveFlags struct {
	configPath    string
	port          int
	host          string
	dataDir       string
	logLevel      string
	logFormat     string
	logFile       string
	maxLogEntries int
}

var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mockdeck daemon",
	Long: `Start the mockdeck daemon: the admin API plus every auto-start
mock service.

Configuration comes from a mockdeck.yaml workspace file, discovered in
the current directory unless --config points elsewhere. The daemon also
runs without one, serving whatever projects and services the data
directory already holds.`,
	Example: `  # Discover mockdeck.yaml in the current directory
  mockdeck serve

  # Explicit config and admin port
  mockdeck serve --config ./deploy/mockdeck.yaml --port 5000

  # Ephemeral admin port, verbose logs
  mockdeck serve -p 0 --log-level debug`,
	RunE: runServe,
}

func init() {
	f := &serveFlagVals
	serveCmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to mockdeck.yaml (default: discover in current directory)")
	serveCmd.Flags().IntVarP(&f.port, "port", "p", cliconfig.DefaultAdminPort, "Admin API port (0 picks a free port)")
	serveCmd.Flags().StringVar(&f.host, "host", "127.0.0.1", "Admin API bind address")
	serveCmd.Flags().StringVar(&f.dataDir, "data-dir", "", "Data directory (default: platform data dir)")
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", cliconfig.DefaultLogLevel, "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&f.logFormat, "log-format", cliconfig.DefaultLogFormat, "Log format (text, json)")
	serveCmd.Flags().StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file")
	serveCmd.Flags().IntVar(&f.maxLogEntries, "max-log-entries", cliconfig.DefaultMaxLogEntries, "Request log capacity per daemon")
	rootCmd.AddCommand(serveCmd)
}

// serveSettings is the merged daemon configuration. Precedence per
// field: command line flag, then mockdeck.yaml admin block, then rc
// file or environment, then built-in default.
type serveSettings struct {
	host          string
	port          int
	dataDir       string
	logLevel      string
	logFormat     string
	maxLogEntries int
}

func resolveServeSettings(cmd *cobra.Command, f *serveFlags, ws *config.WorkspaceFile) (serveSettings, error) {
	rc, err := cliconfig.LoadAll()
	if err != nil {
		return serveSettings{}, err
	}

	s := serveSettings{
		host:          "127.0.0.1",
		port:          rc.AdminPort,
		dataDir:       rc.DataDir,
		logLevel:      rc.LogLevel,
		logFormat:     rc.LogFormat,
		maxLogEntries: rc.MaxLogEntries,
	}

	if ws != nil && ws.Admin != nil {
		if ws.Admin.Host != "" {
			s.host = ws.Admin.Host
		}
		if ws.Admin.Port != 0 {
			s.port = ws.Admin.Port
		}
	}

	if cmd.Flags().Changed("port") {
		s.port = f.port
	}
	if cmd.Flags().Changed("host") {
		s.host = f.host
	}
	if cmd.Flags().Changed("data-dir") {
		s.dataDir = f.dataDir
	}
	if cmd.Flags().Changed("log-level") {
		s.logLevel = f.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		s.logFormat = f.logFormat
	}
	if cmd.Flags().Changed("max-log-entries") {
		s.maxLogEntries = f.maxLogEntries
	}

	check := cliconfig.CLIConfig{
		AdminPort:     s.port,
		LogLevel:      s.logLevel,
		LogFormat:     s.logFormat,
		MaxLogEntries: s.maxLogEntries,
	}
	if err := check.Validate(); err != nil {
		return serveSettings{}, err
	}
	return s, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	f := &serveFlagVals

	configPath := f.configPath
	if configPath == "" {
		if discovered, err := config.Discover(); err == nil {
			configPath = discovered
		}
	}

	var ws *config.WorkspaceFile
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		ws = loaded
	}

	settings, err := resolveServeSettings(cmd, f, ws)
	if err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:  logging.ParseLevel(settings.logLevel),
		Format: logging.ParseFormat(settings.logFormat),
	}
	log := logging.New(logCfg)
	if f.logFile != "" {
		lf, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer lf.Close()
		log = logging.NewTee(logCfg, lf)
	}

	storeCfg := store.DefaultConfig()
	if settings.dataDir != "" {
		storeCfg.DataDir = settings.dataDir
	}
	fs := file.New(storeCfg)
	fs.SetLogger(log.With("component", "store"))

	ctx := context.Background()
	if err := fs.Open(ctx); err != nil {
		return fmt.Errorf("opening data store: %w", err)
	}
	defer func() {
		if err := fs.Close(); err != nil {
			log.Warn("closing data store", "error", err)
		}
	}()

	reg := registry.NewStore(fs.Blobs())
	reg.SetLogger(log.With("component", "registry"))
	if err := reg.Load(ctx); err != nil {
		return fmt.Errorf("loading registry: %w", err)
	}

	envs := env.NewStore(fs.Blobs())
	envs.SetLogger(log.With("component", "environments"))
	if err := envs.Load(ctx); err != nil {
		return fmt.Errorf("loading environments: %w", err)
	}

	rules := storage.NewInMemoryRuleStore()
	resolver := env.NewResolver(envs)
	reqLog := engine.NewInMemoryRequestLogger(settings.maxLogEntries)

	baseDir := config.BaseDir(configPath)
	launcher := engine.NewLauncher(rules, resolver,
		engine.WithRequestLog(reqLog),
		engine.WithLogger(log.With("component", "engine")),
		engine.WithBaseDir(baseDir),
	)

	var autoStart []*registry.Service
	if ws != nil {
		loader := engine.NewWorkspaceLoader(reg, envs, rules)
		loader.SetLogger(log.With("component", "workspace"))
		autoStart, err = loader.Apply(ctx, ws, baseDir)
		if err != nil {
			return fmt.Errorf("applying %s: %w", configPath, err)
		}
	}

	// Persisted services marked auto-start join the list even when they
	// are not part of the workspace file.
	seen := make(map[string]bool, len(autoStart))
	for _, svc := range autoStart {
		seen[svc.ID] = true
	}
	for _, svc := range reg.ListServices(ctx) {
		if svc.AutoStart && !seen[svc.ID] {
			autoStart = append(autoStart, svc)
		}
	}

	started := 0
	for _, svc := range autoStart {
		if err := launcher.StartService(ctx, svc); err != nil {
			log.Warn("auto-start failed", "service", svc.Name, "port", svc.Port, "error", err)
			continue
		}
		started++
	}

	api := admin.New(settings.port, launcher, reg, envs,
		admin.WithHost(settings.host),
		admin.WithRequestLog(reqLog),
		admin.WithLogger(log.With("component", "admin")),
		admin.WithVersion(Version),
	)
	if err := api.Start(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "mockdeck daemon started\n")
	fmt.Fprintf(out, "  Admin API:  http://%s:%d\n", settings.host, api.Port())
	if configPath != "" {
		fmt.Fprintf(out, "  Config:     %s\n", configPath)
	}
	fmt.Fprintf(out, "  Data dir:   %s\n", fs.DataDir())
	for _, srv := range launcher.ListServices() {
		info := srv.StatusInfo()
		if info.Status != registry.ServiceStatusRunning {
			continue
		}
		fmt.Fprintf(out, "  %-11s http://localhost:%d%s\n", info.ServiceName+":", info.Port, info.Prefix)
	}
	fmt.Fprintf(out, "\nPress Ctrl+C to stop\n")

	log.Info("daemon ready", "adminPort", api.Port(), "services", started)

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	log.Info("shutting down")
	if err := api.Stop(); err != nil {
		log.Warn("stopping admin API", "error", err)
	}
	if err := launcher.StopAll(); err != nil {
		log.Warn("stopping services", "error", err)
	}
	return nil
}
