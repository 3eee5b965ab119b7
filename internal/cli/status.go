package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the workspace state and the indexed document",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	p, err := buildPipeline(cmd.Context(), cfg, GetRootDir(), logger)
	if err != nil {
		return err
	}
	defer p.Close()

	status := p.Status()
	fmt.Printf("State:      %s\n", status.State)
	if status.Info == nil {
		fmt.Println("No document indexed. Run 'docqa ingest <file.pdf>'.")
		return nil
	}

	fmt.Printf("Document:   %s\n", status.Info.Source)
	fmt.Printf("Chunks:     %d\n", status.Info.ChunkCount)
	fmt.Printf("Embedding:  %s (%d dims)\n", status.Info.EmbeddingModel, status.Info.Dimension)
	fmt.Printf("Indexed at: %s\n", status.Info.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("LLM:        %s (%s)\n", cfg.LLM.Model, cfg.LLM.Provider)
	fmt.Printf("Index:      %s\n", cfg.IndexDBPath(GetRootDir()))
	return nil
}
