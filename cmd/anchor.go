package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"doctrans/internal/logger"
	"doctrans/internal/manifest"
	"doctrans/internal/pipeline"
)

func newAnchorCmd(configPath, logLevel *string) *cobra.Command {
	var documentPath string
	var ledgerPath string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "anchor",
		Short: "Resolve asset anchors against document blocks and report coverage",
		Long: `Anchor runs column detection and anchor resolution only, without
calling the translation service. Use it to inspect anchoring quality
before spending tokens on a full translation run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, *logLevel)
			if err != nil {
				return err
			}
			defer logger.Close()

			doc, err := manifest.LoadDocument(documentPath)
			if err != nil {
				return err
			}
			ledger, err := manifest.LoadLedger(ledgerPath)
			if err != nil {
				return err
			}

			p := pipeline.New(cfg, nil, nil)
			report := p.Anchor(ledger, doc)

			fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
			for _, w := range report.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}

			if outputDir != "" {
				store, err := manifest.NewStore(outputDir)
				if err != nil {
					return err
				}
				name := doc.Name
				if name == "" {
					name = "document"
				}
				if err := store.SaveManifest(name, ledger); err != nil {
					return err
				}
				if err := store.SaveAnchoringReport(name, report); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote manifest to %s\n", store.RunDir(name))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&documentPath, "document", "", "path to the extracted document JSON")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "path to the asset ledger JSON")
	cmd.Flags().StringVar(&outputDir, "output", "", "directory to write the manifest and report into")
	cmd.MarkFlagRequired("document")
	cmd.MarkFlagRequired("ledger")

	return cmd
}
