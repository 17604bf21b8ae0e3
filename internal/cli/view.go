package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joekir/ssdeepviz/internal/client"
	"github.com/joekir/ssdeepviz/internal/config"
	"github.com/joekir/ssdeepviz/internal/logger"
	"github.com/joekir/ssdeepviz/internal/session"
	"github.com/joekir/ssdeepviz/internal/tui"
	"github.com/spf13/cobra"
)

// NewViewCommand creates the interactive view command.
func NewViewCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view [text]",
		Short: "Step through the hash of text interactively",
		Long: `Opens an interactive view over text. Each step feeds one more byte to the
engine. Without an argument the last viewed text is reused.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config()
			text, err := resolveText(cfg.Home, args)
			if err != nil {
				return err
			}
			if err := config.SaveLastInput(cfg.Home, text); err != nil {
				logger.Warnf("failed to save last input: %v", err)
			}

			engine, err := client.New(cfg)
			if err != nil {
				return err
			}
			driver := session.NewDriver(engine)
			defer driver.Close()

			p := tea.NewProgram(
				tui.NewModel(driver, text, cfg.Timeout),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err = p.Run()
			return err
		},
	}
}

// resolveText joins args, falling back to the saved last input.
func resolveText(home string, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	last, ok, err := config.LoadLastInput(home)
	if err != nil {
		return "", fmt.Errorf("failed to load last input: %w", err)
	}
	if !ok || last.Text == "" {
		return "", fmt.Errorf("no text given and no previous input saved")
	}
	return last.Text, nil
}
