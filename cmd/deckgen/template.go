package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sfapps-deck-go/internal/deck"
)

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write a minimal starter template in the expected layout",
		RunE:  runTemplate,
	}
	cmd.Flags().String("out", "template.pptx", "output file")
	cmd.Flags().Int("slides", 10, "number of programme (app) slides")
	return cmd
}

func runTemplate(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	slides, _ := cmd.Flags().GetInt("slides")

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := deck.WriteStarterTemplate(f, slides); err != nil {
		f.Close()
		os.Remove(out)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s with %d programme slides\n", out, slides)
	return nil
}
