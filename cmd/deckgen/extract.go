package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sfapps-deck-go/internal/fetcher"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Print what the scrapers find on a listing page as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}
	cmd.Flags().Bool("browser", false, "also try the headless browser strategy")
	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, zl, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer zl.Sync()

	client := fetcher.NewHTTPClient(cfg.UserAgent, cfg.FetchTimeout, cfg.LogoTimeout)
	var strategies []fetcher.Strategy
	if useBrowser, _ := cmd.Flags().GetBool("browser"); useBrowser || cfg.Browser.Enabled {
		browser := fetcher.NewBrowserStrategy(cfg.Browser.Bin, cfg.Browser.Timeout, zl)
		defer browser.Close()
		strategies = append(strategies, browser)
	}
	strategies = append(strategies, fetcher.NewStaticStrategy(client))

	listing := fetcher.NewExtractor(client, zl, strategies...).Extract(cmd.Context(), args[0])

	out := struct {
		URL            string   `json:"url"`
		Name           string   `json:"name"`
		Developer      string   `json:"developer"`
		LogoURL        string   `json:"logo_url,omitempty"`
		LogoMIME       string   `json:"logo_mime,omitempty"`
		LogoBytes      int      `json:"logo_bytes"`
		Sources        []string `json:"sources"`
		NameFound      bool     `json:"name_found"`
		DeveloperFound bool     `json:"developer_found"`
		LogoFound      bool     `json:"logo_found"`
	}{
		URL:            listing.URL,
		Name:           listing.Name,
		Developer:      listing.Developer,
		LogoURL:        listing.LogoURL,
		LogoMIME:       listing.LogoMIME,
		LogoBytes:      len(listing.Logo),
		Sources:        listing.Sources,
		NameFound:      listing.NameFound,
		DeveloperFound: listing.DeveloperFound,
		LogoFound:      listing.LogoFound,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode listing: %w", err)
	}
	return nil
}
