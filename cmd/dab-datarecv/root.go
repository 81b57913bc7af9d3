package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"datarecv/internal/daemonrun"
	"datarecv/internal/packet"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevel string
	var development bool

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "dab-datarecv <packet_address>",
		Short: "Receive IPDT data messages from a DAB ensemble",
		Long: "Tune the configured channel, wait for the ensemble to settle and store every\n" +
			"IPDT message sent at <packet_address> as a numbered file in the output directory.\n" +
			"The address is decimal or 0x-prefixed hex in 1..1023.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          packetAddressArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parsePacketAddress(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				Address:     address,
				LogLevel:    logLevel,
				Development: development,
				Console:     cmd.ErrOrStderr(),
			})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&development, "development", false, "Include source locations in log output")

	rootCmd.AddCommand(newRecordsCommand(ctx))
	rootCmd.AddCommand(newChannelsCommand())
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// packetAddressArgs requires exactly one valid packet address and prints
// usage to stderr otherwise.
func packetAddressArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		cmd.PrintErr(cmd.UsageString())
		return fmt.Errorf("expected exactly one packet address, got %d arguments", len(args))
	}
	if _, err := parsePacketAddress(args[0]); err != nil {
		cmd.PrintErr(cmd.UsageString())
		return err
	}
	return nil
}

func parsePacketAddress(value string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid packet address %q: not a number", value)
	}
	if n == uint64(packet.PaddingAddress) || n > uint64(packet.MaxAddress) {
		return 0, fmt.Errorf("invalid packet address %q: must be between 1 and %d", value, packet.MaxAddress)
	}
	return uint16(n), nil
}
