// wifid drives a UART-attached WiFi radio module: it serializes
// access-point commands through a single dispatch loop, records an
// audit trail and optionally exposes an HTTP control API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/espwifi/wifid/internal/ap"
	"github.com/espwifi/wifid/internal/api"
	"github.com/espwifi/wifid/internal/atcmd"
	"github.com/espwifi/wifid/internal/audit"
	"github.com/espwifi/wifid/internal/config"
	"github.com/espwifi/wifid/internal/dispatch"
	"github.com/espwifi/wifid/internal/doctor"
	"github.com/espwifi/wifid/internal/events"
	"github.com/espwifi/wifid/internal/lock"
	"github.com/espwifi/wifid/internal/log"
	"github.com/espwifi/wifid/internal/storage"
	"github.com/espwifi/wifid/internal/transport"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "start":
		return runStart(args)
	case "doctor":
		return runDoctor(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "wifid.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")

	fingerprint, err := config.Fingerprint(*configPath)
	if err != nil {
		logger.Error("failed to fingerprint config", "path", *configPath, "error", err)
		return 1
	}
	logger.Info("wifid starting", "version", version, "config", *configPath, "config_fingerprint", fingerprint)

	pidLockPath := filepath.Join(filepath.Dir(cfg.Audit.Path), "wifid.pid")
	pidLock, err := lock.Acquire(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be driving the module)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.Audit.Path)
	if err != nil {
		logger.Error("failed to open audit database", "path", cfg.Audit.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("audit database opened", "path", cfg.Audit.Path)

	port, err := transport.OpenSerial(transport.SerialConfig{
		Device:      cfg.Serial.Port,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: cfg.Serial.ReadTimeout,
	})
	if err != nil {
		logger.Error("failed to open serial port", "device", cfg.Serial.Port, "error", err)
		return 1
	}
	logger.Info("serial port opened", "device", cfg.Serial.Port, "baud", cfg.Serial.Baud)

	hub := events.NewHub(256)
	codec := atcmd.New(port, hub)
	defer codec.Close()

	store := audit.NewStore(db)
	go store.RecordStations(ctx, hub)

	disp := dispatch.New(codec, dispatch.Config{QueueDepth: cfg.Dispatch.QueueDepth}, store)
	client := ap.NewClient(disp, cfg.Dispatch.Timeouts)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)

	go func() {
		if err := disp.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("dispatcher: %w", err)
		}
	}()

	if cfg.API.Enabled {
		apiServer := api.New(api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.APIKey,
		}, client, disp, store, hub, log.WithComponent("api"))
		go func() {
			if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	case err := <-errCh:
		logger.Error("fatal error", "error", err)
		cancel()
		return 1
	}

	return 0
}

func runDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	configPath := fs.String("config", "wifid.yaml", "Path to configuration file")
	jsonOut := fs.Bool("json", false, "Output the report as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	result := doctor.New(cfg).Validate()

	if *jsonOut {
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render report: %v\n", err)
			return 1
		}
		fmt.Println(out)
	} else {
		fmt.Print(doctor.FormatHuman(result))
	}

	if !result.Valid {
		return 1
	}
	return 0
}

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	info := versionInfo{Version: strings.TrimSpace(version), Commit: "unknown"}
	if commit := readBuildSetting("vcs.revision"); commit != "" {
		if len(commit) > 12 {
			commit = commit[:12]
		}
		info.Commit = commit
	}

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("wifid %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	return 0
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`wifid - WiFi module control daemon

Usage:
  wifid <command> [flags]

Commands:
  start     Run the daemon in the foreground
  doctor    Validate configuration and environment
  version   Show version information
  help      Show this help

Flags:
  --config  Path to the YAML configuration file (default wifid.yaml)
`)
}
