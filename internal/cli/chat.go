package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"docqa/internal/domain"
	"docqa/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question answering session",
	Long: `Open a terminal UI for a conversation about the indexed document.

Commands inside the session:
  /ingest <file.pdf>   index a document (replaces the current one)
  /reset               discard the index and the conversation
  /quit                leave

Logs are written to <workspace>/docqa.log while the UI is running.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	// Logging to stderr would corrupt the alternate screen.
	wsDir := cfg.WorkspaceDir(GetRootDir())
	if err := os.MkdirAll(wsDir, 0755); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(wsDir, "docqa.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	chatLogger := newLogger(logFile, cfg.Logging.Level, verbose)

	p, err := buildPipeline(cmd.Context(), cfg, GetRootDir(), chatLogger)
	if err != nil {
		return err
	}
	defer p.Close()

	session := domain.NewSession()
	chatLogger.Info("chat session started", "session", session.ID)

	prog := tea.NewProgram(tui.New(cmd.Context(), p, session), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	chatLogger.Info("chat session ended", "session", session.ID, "turns", len(session.Turns))
	return nil
}
