package cli

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/philip-sorokin/word-template-engine/pkg/document"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const maxNameWidth = 48

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <template>",
		Short: "List the placeholders, sections and images of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			doc, err := document.LoadFile(args[0], log)
			if err != nil {
				printEngineError(err)
				return err
			}

			pterm.DefaultSection.Printfln("Placeholders in %s", args[0])

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Name", "Paragraphs", "Rows"})
			for _, name := range doc.PlaceholderNames() {
				t.AppendRow(table.Row{
					runewidth.Truncate(name, maxNameWidth, "…"),
					doc.PlaceholderParagraphCount(name),
					doc.PlaceholderRowCount(name),
				})
			}
			t.Render()

			pterm.DefaultSection.Println("Structure")
			pterm.Info.Printfln("sections: %d", doc.SectionCount())
			pterm.Info.Printfln("headers: %d, footers: %d", len(doc.Headers()), len(doc.Footers()))
			if ids := doc.ImageIDs(); len(ids) > 0 {
				pterm.Info.Printfln("images: %v", ids)
			}
			return nil
		},
	}
	return cmd
}
