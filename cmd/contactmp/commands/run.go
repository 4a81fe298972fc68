package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hostcampaign/site/internal/mpclient"
	"github.com/hostcampaign/site/internal/mpcontact"
	"github.com/hostcampaign/site/internal/terminal"
)

func runCmd() *cobra.Command {
	var directoryURL, generatorURL, apiKey string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Find your MP and draft an email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			contact := cfg.ContactMP
			if directoryURL != "" {
				contact.DirectoryURL = directoryURL
				if generatorURL == "" {
					contact.GeneratorURL = directoryURL
				}
			}
			if generatorURL != "" {
				contact.GeneratorURL = generatorURL
			}
			if apiKey != "" {
				contact.APIKey = apiKey
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := mpclient.NewFromConfig(contact)
			wiz := mpcontact.New(client, client)
			defer wiz.Close()

			session := terminal.NewSession(wiz, cmd.InOrStdin(), cmd.OutOrStdout(),
				terminal.NewClipboard(), terminal.BrowserOpener{})
			return session.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&directoryURL, "directory-url", "", "MP directory base URL")
	cmd.Flags().StringVar(&generatorURL, "generator-url", "", "email generator base URL (defaults to the directory URL)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key sent as X-API-Key")
	return cmd
}
