package cli

import (
	"errors"

	"github.com/fatih/color"
	"github.com/philip-sorokin/word-template-engine/pkg/document"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRenderCommand() *cobra.Command {
	var dataFile string

	cmd := &cobra.Command{
		Use:   "render <template> <output>",
		Short: "Populate a template package and write the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			templatePath, outputPath := args[0], args[1]

			doc, err := document.LoadFile(templatePath, log)
			if err != nil {
				printEngineError(err)
				return err
			}
			log.Info("template loaded",
				zap.String("session", doc.ID()),
				zap.String("template", templatePath))

			if dataFile != "" {
				spec, err := LoadRenderSpec(dataFile)
				if err != nil {
					return err
				}
				if err := spec.Apply(doc); err != nil {
					printEngineError(err)
					return err
				}
			}

			if err := doc.SaveFile(outputPath); err != nil {
				printEngineError(err)
				return err
			}
			pterm.Success.Printfln("rendered %s", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataFile, "data", "d", "", "values file (json, yaml or toml)")
	return cmd
}

// printEngineError highlights the stable code of an engine failure.
func printEngineError(err error) {
	var e *document.Error
	if errors.As(err, &e) {
		color.Red("%s: %s", e.Code, e.Message)
		return
	}
	color.Red("%v", err)
}
