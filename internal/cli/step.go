package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/joekir/ssdeepviz/internal/client"
	"github.com/joekir/ssdeepviz/internal/interp"
	"github.com/joekir/ssdeepviz/internal/session"
	"github.com/joekir/ssdeepviz/internal/tui"
	"github.com/spf13/cobra"
)

// StepRecord is one consumed byte in json output.
type StepRecord struct {
	Cursor    int      `json:"cursor"`
	Byte      byte     `json:"byte"`
	Bits      [8]uint8 `json:"bits"`
	X         string   `json:"x"`
	Y         string   `json:"y"`
	Z         string   `json:"z"`
	Window    []uint32 `json:"window"`
	Signature string   `json:"signature"`
	Primary   bool     `json:"primary"`
	Secondary bool     `json:"secondary"`
	Phase     string   `json:"phase"`
}

// NewStepCommand creates the non-interactive step command.
func NewStepCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		steps int
		final bool
	)

	cmd := &cobra.Command{
		Use:   "step <text>",
		Short: "Print the engine state after each byte",
		Long: `Starts a session over text and advances it, printing a frame after the
first byte and after every step. By default every byte is consumed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := resolveText("", args)
			if err != nil {
				return err
			}
			engine, err := client.New(rootOpts.Config())
			if err != nil {
				return err
			}
			d := session.NewDriver(engine)
			defer d.Close()

			return runSteps(cmd.Context(), d, stepOptions{
				Text:   text,
				Limit:  steps,
				Final:  final,
				Format: rootOpts.Format,
			}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", -1, "bytes to advance after the first (-1 for all)")
	cmd.Flags().BoolVar(&final, "final", false, "only print the last frame")

	return cmd
}

type stepOptions struct {
	Text   string
	Limit  int // < 0 consumes the whole stream
	Final  bool
	Format string
}

func runSteps(ctx context.Context, d *session.Driver, opts stepOptions, w io.Writer) error {
	state, err := d.Start(ctx, opts.Text)
	if err != nil {
		return err
	}

	var states []session.State
	if !opts.Final {
		states = append(states, state)
	}
	for n := 0; state.CanAdvance() && (opts.Limit < 0 || n < opts.Limit); n++ {
		state, err = d.Advance(ctx)
		if err != nil {
			return fmt.Errorf("step %d: %w", state.Cursor+1, err)
		}
		if !opts.Final {
			states = append(states, state)
		}
	}
	if opts.Final {
		states = append(states, state)
	}

	if opts.Format == "json" {
		records := make([]StepRecord, len(states))
		for i, st := range states {
			records[i] = recordOf(st)
		}
		return writeJSON(w, records)
	}
	for _, st := range states {
		if _, err := fmt.Fprintln(w, tui.RenderPlain(interp.NewFrame(st))); err != nil {
			return err
		}
	}
	return nil
}

func recordOf(state session.State) StepRecord {
	f := interp.NewFrame(state)
	return StepRecord{
		Cursor:    f.Cursor,
		Byte:      f.Bytes[f.Cursor],
		Bits:      f.Bits,
		X:         f.X,
		Y:         f.Y,
		Z:         f.Z,
		Window:    f.Window,
		Signature: f.Signature,
		Primary:   state.IsPrimaryHit(f.Cursor),
		Secondary: state.IsSecondaryHit(f.Cursor),
		Phase:     string(f.Phase),
	}
}
