package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hostcampaign/site/internal/config"
	"github.com/hostcampaign/site/internal/pkg/logger"
)

var (
	configPath string
	verbose    bool
	cfg        *config.Config
)

// Execute runs the root command.
func Execute() error {
	root := &cobra.Command{
		Use:          "contactmp",
		Short:        "Write to your MP about short-term rentals",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadFromEnv(configPath)
			if err != nil {
				return err
			}
			cfg = loaded

			logger.SetRedactPII(cfg.Log.Redact())
			if verbose {
				logger.SetLevel(logger.DEBUG)
				logger.SetOutput(os.Stderr)
			} else {
				logger.SetOutput(io.Discard)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(runCmd(), concernsCmd())
	return root.Execute()
}
