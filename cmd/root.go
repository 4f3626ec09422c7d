package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/covermatch/internal/app"
	"github.com/lehigh-university-libraries/covermatch/internal/config"
	"github.com/lehigh-university-libraries/covermatch/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "covermatch",
		Short: "Identify books from photos of their covers",
		Long: `Covermatch identifies a book from a photo of its cover.

Photos are embedded in all four orientations and compared with the registered
catalogue of cover embeddings. Matches are reported as confirmed, uncertain or
unknown depending on the best score and its margin over the runner-up.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default: $CONFIG_PATH or ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format (text or json)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newIdentifyCmd(opts))
	cmd.AddCommand(newRegisterCmd(opts))
	cmd.AddCommand(newBooksCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newEvalCmd(opts))

	return cmd
}

func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	o.cfg = cfg
	return nil
}

// openApp wires the catalogue from the loaded configuration.
func (o *rootOptions) openApp(ctx context.Context) (*app.App, error) {
	if o.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return app.New(ctx, o.cfg)
}
