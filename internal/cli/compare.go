package cli

import (
	"fmt"

	"github.com/joekir/ssdeepviz/internal/ctph"
	"github.com/spf13/cobra"
)

// CompareResult is the json output of the compare command.
type CompareResult struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Distance int    `json:"distance"`
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <signature> <signature>",
		Short: "Edit distance between two signatures",
		Long: `Compares two signatures computed at the same block size. The result is the
smaller Levenshtein distance of their two parts; 0 means identical.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctph.Compare(args[0], args[1])
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), CompareResult{A: args[0], B: args[1], Distance: d})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), d)
			return err
		},
	}
}
