package cli

import (
	"fmt"
	"os"

	"github.com/philip-sorokin/word-template-engine/pkg/inliner"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newInlineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inline <input.html> [output.html]",
		Short: "Flatten stylesheet rules onto inline styles for mail clients",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			markup, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			result, err := inliner.New(log).Inline(string(markup))
			if err != nil {
				return err
			}

			if len(args) == 1 {
				fmt.Println(result)
				return nil
			}
			if err := os.WriteFile(args[1], []byte(result), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", args[1], err)
			}
			pterm.Success.Printfln("inlined styles into %s", args[1])
			return nil
		},
	}
	return cmd
}
