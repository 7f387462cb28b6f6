package cli

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/philip-sorokin/word-template-engine/internal/emitter"
	"github.com/philip-sorokin/word-template-engine/pkg/document"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const packageContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func newServeCommand() *cobra.Command {
	var addr string
	var fileName string

	cmd := &cobra.Command{
		Use:   "serve <template>",
		Short: "Serve rendered documents over HTTP",
		Long: `serve answers POST /render requests. The request body is a JSON values
document in the same shape as the --data file of the render command; the
response streams the populated package as a download.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			templatePath := args[0]
			// Fail fast on an unreadable template before binding the socket.
			if _, err := document.LoadFile(templatePath, log); err != nil {
				printEngineError(err)
				return err
			}
			if fileName == "" {
				fileName = filepath.Base(templatePath)
			}

			mux := http.NewServeMux()
			mux.Handle("/render", renderHandler(templatePath, fileName, cfg.KeepArtifacts, log))

			pterm.Info.Printfln("serving %s on %s", templatePath, addr)
			return http.ListenAndServe(addr, mux)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&fileName, "filename", "", "download file name (default: template base name)")
	return cmd
}

// renderHandler loads a fresh session per request: the engine is
// single-threaded and mutates its trees in place, so sessions are never
// shared between requests. With keepArtifacts the rendered package stays on
// disk after the response and its path is logged.
func renderHandler(templatePath, fileName string, keepArtifacts bool, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var spec RenderSpec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			http.Error(w, "invalid values document: "+err.Error(), http.StatusBadRequest)
			return
		}

		doc, err := document.LoadFile(templatePath, log)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := spec.Apply(doc); err != nil {
			status := http.StatusInternalServerError
			if document.IsCode(err, document.CodeSectionNotFound) ||
				document.IsCode(err, document.CodeImageNotFound) ||
				document.IsCode(err, document.CodeReplacementImageMissing) {
				status = http.StatusUnprocessableEntity
			}
			http.Error(w, err.Error(), status)
			return
		}

		out, err := os.CreateTemp("", "wordtpl-*.docx")
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		outPath := out.Name()
		if keepArtifacts {
			log.Info("keeping rendered artifact", zap.String("path", outPath))
		} else {
			defer os.Remove(outPath)
		}

		if err := doc.Save(out); err != nil {
			out.Close()
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := out.Close(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if err := emitter.Emit(w, outPath, packageContentType, "attachment", fileName); err != nil {
			log.Error("emitting rendered package failed",
				zap.String("session", doc.ID()),
				zap.Error(err))
		}
	})
}
