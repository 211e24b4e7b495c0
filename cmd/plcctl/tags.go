package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List uploaded tag definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDriver(cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			for _, def := range d.Tags() {
				fmt.Printf("%-40s %s (instance %d)\n", def.Name, def.TypeName, def.InstanceID)
			}
			return nil
		},
	}
	return cmd
}
