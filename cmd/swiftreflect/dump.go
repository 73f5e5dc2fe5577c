package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/swiftreflect/swiftreflect/pkg/swift"
)

func newDumpCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dump <macho-file>",
		Short: "Dump the full Swift reflection inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, closer, err := loadInventory(args[0])
			if err != nil {
				return err
			}
			defer closer()

			if asJSON {
				return printJSON(cmd, inv)
			}
			printInventoryText(inv)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the inventory as JSON instead of pseudocode")
	return cmd
}

func printJSON(cmd *cobra.Command, inv *swift.Inventory) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(inv)
}

func printInventoryText(inv *swift.Inventory) {
	if len(inv.Types) == 0 && len(inv.Conformances) == 0 && len(inv.Extensions) == 0 {
		log.Println("no Swift reflection metadata found")
		return
	}
	for _, t := range inv.Types {
		fmt.Println(printType(t, inv))
	}
	for _, e := range inv.Extensions {
		fmt.Println(printExtension(e))
	}
	for _, c := range inv.Conformances {
		fmt.Println(printConformance(c))
	}
}
