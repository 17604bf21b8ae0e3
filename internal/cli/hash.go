package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/joekir/ssdeepviz/internal/ctph"
	"github.com/spf13/cobra"
)

// HashResult is the json output of the hash command.
type HashResult struct {
	Source    string `json:"source"`
	Length    int    `json:"length"`
	Signature string `json:"signature"`
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "hash [file|-]",
		Short: "Compute the signature of a file, stdin or text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, data, err := readInput(cmd, text, args)
			if err != nil {
				return err
			}
			sig, err := ctph.Hash(data)
			if err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), HashResult{Source: source, Length: len(data), Signature: sig})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", sig, source)
			return err
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "hash this string instead of a file")

	return cmd
}

func readInput(cmd *cobra.Command, text string, args []string) (string, []byte, error) {
	if cmd.Flags().Changed("text") {
		return "text", []byte(text), nil
	}
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return "-", data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", nil, err
	}
	return args[0], data, nil
}
