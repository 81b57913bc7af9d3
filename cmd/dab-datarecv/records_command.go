package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"datarecv/internal/msgstore"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List stored messages from the record index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.IndexPath()
			if path == "" {
				return errors.New("record index disabled; set store.index = true to list records")
			}
			if limit < 0 {
				return fmt.Errorf("limit must be non-negative (got %d)", limit)
			}
			index, err := msgstore.OpenIndex(path)
			if err != nil {
				return err
			}
			defer index.Close()

			entries, err := index.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No records indexed")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.FormatUint(e.ID, 10),
					humanize.IBytes(uint64(e.Size)),
					e.TypeTag + "/" + e.Category,
					formatReceived(e),
					shortRunID(e.RunID),
					e.Path,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Size", "Type", "Received", "Run", "Path"},
				rows,
				[]columnAlignment{alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records to show (0 for all)")
	return cmd
}

func formatReceived(e msgstore.IndexEntry) string {
	if e.CreatedAt.IsZero() {
		return "-"
	}
	return e.CreatedAt.Local().Format("2006-01-02 15:04:05")
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
