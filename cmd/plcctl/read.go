package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <tag> [tag...]",
		Short: "Read one or more tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDriver(cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			results := d.Read(args...)
			failed := false
			for _, r := range results {
				if r.Err != nil {
					failed = true
					fmt.Printf("%s: error: %v\n", r.Name, r.Err)
					continue
				}
				fmt.Printf("%s (%s) = %v\n", r.Name, r.Type, r.Value)
			}
			if failed {
				return fmt.Errorf("one or more reads failed")
			}
			return nil
		},
	}
	return cmd
}
