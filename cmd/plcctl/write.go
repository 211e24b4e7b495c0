package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newWriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <tag>=<value> [tag=value...]",
		Short: "Write one or more tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs := make([]string, len(args))
			values := make([]any, len(args))
			for i, arg := range args {
				ref, raw, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("malformed tag=value pair %q", arg)
				}
				refs[i] = ref
				values[i] = parseCLIValue(raw)
			}

			d, err := openDriver(cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			results := d.Write(refs, values)
			failed := false
			for _, r := range results {
				if r.Err != nil {
					failed = true
					fmt.Printf("%s: error: %v\n", r.Name, r.Err)
					continue
				}
				fmt.Printf("%s: ok\n", r.Name)
			}
			if failed {
				return fmt.Errorf("one or more writes failed")
			}
			return nil
		},
	}
	return cmd
}

// parseCLIValue guesses the Go type to encode a command-line value as:
// bool, then int64, then float64, falling back to the raw string.
func parseCLIValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
