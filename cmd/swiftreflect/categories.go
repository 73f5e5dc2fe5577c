package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types <macho-file>",
		Short: "Dump only the nominal types (classes, structs, enums)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, closer, err := loadInventory(args[0])
			if err != nil {
				return err
			}
			defer closer()
			for _, t := range inv.Types {
				fmt.Println(printType(t, inv))
			}
			return nil
		},
	}
}

func newConformancesCmd() *cobra.Command {
	var protocolName string

	cmd := &cobra.Command{
		Use:   "conformances <macho-file>",
		Short: "Dump protocol conformance records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, closer, err := loadInventory(args[0])
			if err != nil {
				return err
			}
			defer closer()

			conformances := inv.Conformances
			if protocolName != "" {
				conformances = inv.ConformancesForProtocol(protocolName)
			}
			for _, c := range conformances {
				fmt.Println(printConformance(c))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&protocolName, "protocol", "", "only show conformances to this protocol")
	return cmd
}

func newExtensionsCmd() *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "extensions <macho-file>",
		Short: "Dump extension descriptors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, closer, err := loadInventory(args[0])
			if err != nil {
				return err
			}
			defer closer()

			extensions := inv.Extensions
			if typeName != "" {
				extensions = inv.ExtensionsForType(typeName)
			}
			for _, e := range extensions {
				fmt.Println(printExtension(e))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "only show extensions of this type")
	return cmd
}

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields <macho-file>",
		Short: "Dump field descriptors (stored properties / enum cases)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, closer, err := loadInventory(args[0])
			if err != nil {
				return err
			}
			defer closer()
			for _, fd := range inv.FieldDescriptors {
				name := fd.TypeName
				if name == "" {
					name = fmt.Sprintf("0x%x", fd.Address)
				}
				fmt.Printf("%s (%s)\n", name, fd.Kind)
				for _, r := range fd.Records {
					fmt.Println(printFieldRecord(r))
				}
			}
			return nil
		},
	}
}
