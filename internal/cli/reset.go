package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the workspace index",
	Long: `Delete the persisted index (.docqa/index). Afterwards no questions can be
answered until another document is ingested.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	p, err := buildPipeline(cmd.Context(), cfg, GetRootDir(), logger)
	if err != nil {
		// A mismatched index can still be discarded.
		if rerr := newBackend(cfg, GetRootDir()).Remove(); rerr != nil {
			return rerr
		}
		fmt.Println("Workspace reset.")
		return nil
	}
	defer p.Close()

	if err := p.Reset(nil); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	fmt.Println("Workspace reset.")
	return nil
}
