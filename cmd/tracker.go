package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/client"
	"github.com/frahmantamala/expense-tracker/internal/console"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
	"github.com/spf13/cobra"
)

const defaultClientTimeout = 10 * time.Second

var (
	trackerBaseURL     string
	trackerCredentials string
)

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Open the interactive expense tracker",
	Long:  `Sign in against a running server and manage your expenses from the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runTracker(ctx)
	},
}

func init() {
	trackerCmd.Flags().StringVar(&trackerBaseURL, "base-url", "", "API base URL (overrides client.base_url)")
	trackerCmd.Flags().StringVar(&trackerCredentials, "credentials", "", "credentials file (overrides client.credentials_file)")
}

func runTracker(ctx context.Context) error {
	cfg, err := readConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	clientCfg := trackerClientConfig(cfg.Client)

	// errors only, on stderr
	logger.Configure(logger.Options{Format: "text", Level: "error", Output: os.Stderr})
	log := logger.L()

	api := client.New(clientCfg.BaseURL, clientCfg.Timeout, log)
	identity := client.NewIdentity(api, client.NewFileCredentials(clientCfg.CredentialsFile), log)
	store := client.NewStore(api, identity)

	go func() {
		if err := identity.Resolve(ctx); err != nil {
			log.Error("could not resume session", "error", err)
		}
	}()

	return console.New(identity, store, os.Stdin, os.Stdout, log).Run(ctx)
}

func trackerClientConfig(cfg internal.ClientConfig) internal.ClientConfig {
	if trackerBaseURL != "" {
		cfg.BaseURL = trackerBaseURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080/api/v1"
	}
	if trackerCredentials != "" {
		cfg.CredentialsFile = trackerCredentials
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = internal.DefaultCredentialsFile()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultClientTimeout
	}
	return cfg
}
