// Command swiftreflect dumps Swift reflection metadata from a Mach-O
// binary: its nominal types, protocol conformances, extensions, and
// stored-field layouts, plus ad-hoc demangling of a single mangled name.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "swiftreflect",
		Short: "Swift reflection metadata extractor for Mach-O binaries",
		Long:  "swiftreflect reads a Mach-O binary's __swift5_* sections and prints its nominal types, protocol conformances, extensions, and field layouts.",
	}

	root.AddCommand(
		newDumpCmd(),
		newTypesCmd(),
		newConformancesCmd(),
		newExtensionsCmd(),
		newFieldsCmd(),
		newDemangleCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
