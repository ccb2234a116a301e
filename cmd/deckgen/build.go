package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sfapps-deck-go/internal/app"
	"sfapps-deck-go/internal/model"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a presentation from AppExchange listing links",
		Example: `  deckgen build --topic Healthcare \
    --links https://appexchange.salesforce.com/appxListingDetail?listingId=a0N3A00000FvKjIUAV \
    --final-url https://sfapps.info/healthcare --output healthcare.pptx --pdf healthcare.pdf`,
		RunE: runBuild,
	}
	cmd.Flags().String("topic", "", "industry shown on the cover and closing slides")
	cmd.Flags().StringSlice("links", nil, "comma separated AppExchange listing URLs")
	cmd.Flags().String("final-url", "", "URL linked from the closing slide")
	cmd.Flags().String("template", "", "PPTX template (defaults to template_path from config)")
	cmd.Flags().String("output", "generated.pptx", "output PPTX file")
	cmd.Flags().String("pdf", "", "optional PDF output file")
	cmd.MarkFlagRequired("topic")
	cmd.MarkFlagRequired("links")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, zl, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer zl.Sync()

	if tmpl, _ := cmd.Flags().GetString("template"); tmpl != "" {
		cfg.TemplatePath = tmpl
	}
	topic, _ := cmd.Flags().GetString("topic")
	links, _ := cmd.Flags().GetStringSlice("links")
	finalURL, _ := cmd.Flags().GetString("final-url")
	output, _ := cmd.Flags().GetString("output")
	pdfPath, _ := cmd.Flags().GetString("pdf")

	deps, err := app.New(cmd.Context(), cfg, zl)
	if err != nil {
		return err
	}
	defer deps.Close()

	req := &model.DeckRequest{Industry: topic, FinalURL: finalURL, Format: model.FormatPPTX}
	for _, link := range links {
		req.Entries = append(req.Entries, model.Entry{URL: strings.TrimSpace(link)})
	}
	req, err = deps.Service.Normalize(req)
	if err != nil {
		return err
	}

	entries, err := deps.Service.Resolve(cmd.Context(), req, func(i int, e *model.ResolvedEntry) {
		fmt.Fprintf(cmd.ErrOrStderr(), "#%d %s: %s (By %s)\n", e.Number, e.Listing.URL, e.Name, e.Developer)
	})
	if err != nil {
		return err
	}

	artifact, err := deps.Service.Render(cmd.Context(), req, entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, artifact.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)

	if pdfPath == "" {
		return nil
	}
	// PDF 转换失败时只给出警告，PPTX 已经写出
	pdf, err := deps.Converter.ToPDF(cmd.Context(), artifact.Data)
	if err != nil {
		zl.Warn("pdf conversion failed", zap.Error(err))
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		return nil
	}
	if err := os.WriteFile(pdfPath, pdf, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", pdfPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", pdfPath)
	return nil
}
