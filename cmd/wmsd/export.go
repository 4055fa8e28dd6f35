package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kaykim0310/wmsd-report/internal/survey/export"
	"github.com/kaykim0310/wmsd-report/internal/survey/store"
)

var exportFlags struct {
	in   string
	xlsx string
	pdf  string
	font string
}

// exportCmd converts a save file offline
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a save file as a workbook and/or PDF report",
	Long: `Read a save file and write the survey as an xlsx workbook, a PDF report,
or both. Tables that cannot be rendered are skipped and listed on stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFlags.xlsx == "" && exportFlags.pdf == "" {
			return errors.New("nothing to do: pass --xlsx and/or --pdf")
		}
		font := exportFlags.font
		if font == "" {
			font = os.Getenv("EXPORT_FONT_PATH")
		}
		return exportFile(exportFlags.in, exportFlags.xlsx, exportFlags.pdf, font, cmd.ErrOrStderr())
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.in, "in", "", "save file to read")
	exportCmd.Flags().StringVar(&exportFlags.xlsx, "xlsx", "", "workbook output path")
	exportCmd.Flags().StringVar(&exportFlags.pdf, "pdf", "", "PDF output path")
	exportCmd.Flags().StringVar(&exportFlags.font, "font", "", "TrueType font with Hangul glyphs (default $EXPORT_FONT_PATH)")
	exportCmd.MarkFlagRequired("in")
}

func exportFile(in, xlsxPath, pdfPath, fontPath string, stderr io.Writer) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	sv, err := store.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	if xlsxPath != "" {
		res, err := export.Workbook(sv)
		if err != nil {
			return err
		}
		if err := writeResult(xlsxPath, res, stderr); err != nil {
			return err
		}
	}
	if pdfPath != "" {
		res, err := export.Document(sv, export.DocumentOptions{FontPath: fontPath})
		if err != nil {
			return err
		}
		if err := writeResult(pdfPath, res, stderr); err != nil {
			return err
		}
	}
	return nil
}

func writeResult(path string, res *export.Result, stderr io.Writer) error {
	for _, msg := range res.Messages() {
		fmt.Fprintf(stderr, "warning: %s: %s\n", path, msg)
	}
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "wrote %s (%d sections)\n", path, len(res.Sheets))
	return nil
}
