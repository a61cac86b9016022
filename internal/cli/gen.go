package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brianwhu/xillium-sub000/internal/crud"
	"github.com/brianwhu/xillium-sub000/internal/gen"
)

var (
	genActions  string
	genSnapshot string
	genPackage  string
	genOut      string
)

// genCmd represents the gen command
var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate Go request types for an action catalog",
	Long: `Generate one Go struct per catalog action, with db, json and validate
tags derived from the request descriptor.

Descriptors come from the live database, or from a snapshot written by
"crudc snapshot" when --snapshot is given.

Examples:
  crudc gen --package requests --out requests/requests_gen.go
  crudc gen --snapshot crud.snapshot --package requests`,
	RunE: runGen,
}

func init() {
	genCmd.Flags().StringVar(&genActions, "actions", "", "action catalog (default compiler.actions_file)")
	genCmd.Flags().StringVar(&genSnapshot, "snapshot", "", "read descriptors from this snapshot instead of the database")
	genCmd.Flags().StringVar(&genPackage, "package", "requests", "package name of the generated file")
	genCmd.Flags().StringVarP(&genOut, "out", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(genCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	var descriptors []*crud.Descriptor
	if genSnapshot != "" {
		f, err := os.Open(genSnapshot)
		if err != nil {
			return fmt.Errorf("failed to open snapshot: %w", err)
		}
		defer f.Close()
		if descriptors, err = gen.ReadSnapshot(f); err != nil {
			return err
		}
	} else {
		var err error
		if descriptors, err = compileCatalog(cmd, genActions); err != nil {
			return err
		}
	}

	out, closeOut, err := createOutput(genOut, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := gen.Generate(out, genPackage, descriptors); err != nil {
		closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}

	logger.Info("generated request types", "types", len(descriptors), "package", genPackage)
	return nil
}

// compileCatalog compiles every catalog action and returns the descriptors
// in action name order.
func compileCatalog(cmd *cobra.Command, path string) ([]*crud.Descriptor, error) {
	catalog, err := loadCatalog(path)
	if err != nil {
		return nil, err
	}

	s, err := openSession()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	registry := crud.NewRegistry(s.compiler, catalog)
	if err := registry.Precompile(cmd.Context(), precompileLimit); err != nil {
		return nil, err
	}
	commands, err := registry.Commands(cmd.Context())
	if err != nil {
		return nil, err
	}

	descriptors := make([]*crud.Descriptor, len(commands))
	for i, c := range commands {
		descriptors[i] = c.Descriptor
	}
	return descriptors, nil
}
