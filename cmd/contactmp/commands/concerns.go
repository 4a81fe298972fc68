package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostcampaign/site/internal/mpcontact"
)

func concernsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "concerns",
		Short: "List concern identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range mpcontact.Concerns() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", c.ID, c.Label)
			}
			return nil
		},
	}
}
