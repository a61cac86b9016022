package cli

import (
	"github.com/spf13/cobra"

	"github.com/brianwhu/xillium-sub000/internal/gen"
)

// precompileLimit bounds concurrent action compilations.
const precompileLimit = 4

var (
	snapshotActions string
	snapshotOut     string
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write the catalog's request descriptors to a snapshot file",
	Long: `Compile every catalog action against the database and store the request
descriptors in a msgpack snapshot, so "crudc gen --snapshot" can run without
database access.

Example:
  crudc snapshot --out crud.snapshot`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotActions, "actions", "", "action catalog (default compiler.actions_file)")
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "", "snapshot file")
	_ = snapshotCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	descriptors, err := compileCatalog(cmd, snapshotActions)
	if err != nil {
		return err
	}

	out, closeOut, err := createOutput(snapshotOut, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := gen.WriteSnapshot(out, descriptors); err != nil {
		closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}

	logger.Info("wrote snapshot", "path", snapshotOut, "descriptors", len(descriptors))
	return nil
}
