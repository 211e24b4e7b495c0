// Command plcctl is a caller-facing example CLI over pkg/plc, unifying
// the teacher's collection of one-shot cmd/* programs under a single
// cobra command tree with flags instead of hardcoded addresses.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plcctl",
		Short: "Read, write, and inspect tags on an EtherNet/IP controller",
	}

	cmd.PersistentFlags().String("addr", "", "controller address, host:port (required unless --config sets one)")
	cmd.PersistentFlags().Duration("timeout", 0, "connection timeout (0 uses the driver default)")
	cmd.PersistentFlags().Bool("instance-ids", false, "address controller-scoped tags by instance id instead of symbolically")
	cmd.PersistentFlags().Bool("program-tags", false, "also upload program-scoped tags")
	cmd.PersistentFlags().String("config", "", "YAML config file (overrides --addr/--timeout/--program-tags defaults)")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(newReadCmd())
	cmd.AddCommand(newWriteCmd())
	cmd.AddCommand(newTagsCmd())
	cmd.AddCommand(newGenericCmd())

	return cmd
}
