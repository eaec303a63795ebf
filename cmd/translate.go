package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"doctrans/internal/logger"
	"doctrans/internal/manifest"
	"doctrans/internal/pipeline"
	"doctrans/internal/translate"
)

func newTranslateCmd(configPath, logLevel *string) *cobra.Command {
	var documentPath string
	var ledgerPath string
	var targetLangs []string

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate an extracted document into the configured target languages",
		Example: `  # Translate using config-file target languages
  doctrans translate --document doc.json --ledger assets.json

  # Override target languages
  doctrans translate --document doc.json --ledger assets.json --lang de --lang fr`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, *logLevel)
			if err != nil {
				return err
			}
			defer logger.Close()

			if len(targetLangs) > 0 {
				cfg.TargetLangs = targetLangs
			}

			doc, err := manifest.LoadDocument(documentPath)
			if err != nil {
				return err
			}
			ledger, err := manifest.LoadLedger(ledgerPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			translator, err := translate.NewEinoTranslator(ctx, translate.EinoTranslatorConfig{
				APIKey:     cfg.APIKey,
				BaseURL:    cfg.BaseURL,
				Model:      cfg.Model,
				SourceLang: cfg.SourceLang,
			})
			if err != nil {
				return err
			}

			cache := translate.NewCache(cfg.CachePath)
			if err := cache.Load(); err != nil {
				logger.Warn("cache load failed, starting empty", logger.Err(err))
			}

			p := pipeline.New(cfg, translator, cache)

			onProgress := func(current, total int, language string, cost float64) {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] batch %d/%d  cost $%.4f\n",
					language, current, total, cost)
			}

			out, err := p.Run(ctx, doc, ledger, onProgress)
			if err != nil {
				return err
			}

			if err := cache.Save(); err != nil {
				logger.Warn("cache save failed", logger.Err(err))
			}

			outputDir := cfg.OutputDir
			if outputDir == "" {
				outputDir = "doctrans-output"
			}
			store, err := manifest.NewStore(outputDir)
			if err != nil {
				return err
			}

			name := doc.Name
			if name == "" {
				name = "document"
			}
			if err := store.SaveManifest(name, out.Ledger); err != nil {
				return err
			}
			if err := store.SaveAnchoringReport(name, out.Report); err != nil {
				return err
			}

			failed := 0
			for lang, result := range out.Results {
				if err := store.SaveResult(name, lang, result); err != nil {
					return err
				}
				if result.Failed {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] FAILED: %v\n", lang, result.Err)
					continue
				}
				if doc, ok := out.Documents[lang]; ok {
					if err := store.SaveTranslatedDocument(name, lang, doc); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %d segments, %d/%d tokens, $%.4f\n",
					lang, len(result.Segments), result.TokensIn, result.TokensOut, result.Cost)
			}

			for _, w := range out.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "anchoring: %s\n", out.Report.Summary())
			if failed > 0 {
				return fmt.Errorf("%d of %d languages failed; re-run with --lang to retry them",
					failed, len(out.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&documentPath, "document", "", "path to the extracted document JSON")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "path to the asset ledger JSON")
	cmd.Flags().StringArrayVar(&targetLangs, "lang", nil, "target language tag (repeatable)")
	cmd.MarkFlagRequired("document")
	cmd.MarkFlagRequired("ledger")

	return cmd
}
