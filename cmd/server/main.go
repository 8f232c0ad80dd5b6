// Package main provides the entry point for the StreamBridge gateway. The gateway
// accepts OpenAI, Anthropic and Gemini client requests and forwards them to any
// configured provider, translating requests and streamed responses between protocols.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/buildinfo"
	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/logging"
	"github.com/streambridge/streambridge/internal/util"
	"github.com/streambridge/streambridge/sdk/cliproxy"
)

var (
	Version           = "dev"
	Commit            = "none"
	BuildDate         = "unknown"
	DefaultConfigPath = ""
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	fmt.Println(buildinfo.Summary())

	var configPath string
	flag.StringVar(&configPath, "config", DefaultConfigPath, "Configure File Path")
	flag.Parse()

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		os.Exit(1)
	}

	// Load environment variables from .env if present.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	if configPath == "" {
		if v, ok := os.LookupEnv("STREAMBRIDGE_CONFIG"); ok && v != "" {
			configPath = v
		} else {
			configPath = filepath.Join(wd, "config.yaml")
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}

	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		os.Exit(1)
	}
	log.Info(buildinfo.Summary())
	util.SetLogLevel(cfg)

	service, err := cliproxy.NewBuilder().
		WithConfig(cfg).
		WithConfigPath(configPath).
		Build()
	if err != nil {
		log.Errorf("failed to build service: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = service.Run(ctx); err != nil {
		log.Errorf("service stopped with error: %v", err)
		os.Exit(1)
	}
	log.Info("service stopped")
}
