package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swiftreflect/swiftreflect/internal/mangle"
)

// newDemangleCmd exercises the text Demangler (internal/mangle) directly,
// with no Mach-O image involved: a single mangled name in, its demangled
// form out. Symbolic-reference tokens are not decoded here.
func newDemangleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demangle <mangled-name>",
		Short: "Demangle a single Swift mangled type name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), mangle.Demangle(args[0]))
			return nil
		},
	}
}
