package cli

import (
	"github.com/philip-sorokin/word-template-engine/internal/converter"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newConvertCommand() *cobra.Command {
	var (
		filterSpec string
		locale     string
	)

	cmd := &cobra.Command{
		Use:   "convert <file> <format>",
		Short: "Convert a rendered package through the external converter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			conv := converter.New(cfg.Converter, log)
			outputPath, err := conv.Convert(cmd.Context(), args[0], args[1], filterSpec, locale)
			if err != nil {
				printEngineError(err)
				return err
			}
			pterm.Success.Printfln("converted to %s", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&filterSpec, "filter", "", "converter filter specification")
	cmd.Flags().StringVar(&locale, "locale", "", "conversion locale (BCP 47)")
	return cmd
}
