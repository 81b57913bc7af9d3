package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"datarecv/internal/channels"
)

func newChannelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "channels",
		Short:       "List the Band III channel plan",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			all := channels.All()
			rows := make([][]string, 0, len(all))
			for _, ch := range all {
				rows = append(rows, []string{ch.Name, fmt.Sprintf("%d", ch.Frequency), ch.Frequency.String()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Channel", "kHz", "Frequency"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}
