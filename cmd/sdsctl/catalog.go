package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/straye-as/sds-catalog-api/internal/bulk"
	"github.com/straye-as/sds-catalog-api/internal/service"
)

func importCSVCmd() *cobra.Command {
	var file string
	var dryRun bool

	command := &cobra.Command{
		Use:   "import-csv",
		Short: "Import articles from a CSV or XLSX file",
		Long:  "Inserts every valid new row. Rows with errors and article ids that already exist are reported and skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			svc := a.importService()
			if dryRun {
				preview, err := svc.Preview(cmd.Context(), filepath.Base(file), f)
				if err != nil {
					return err
				}
				return printJSON(cmd, preview)
			}

			result, err := svc.Import(cmd.Context(), filepath.Base(file), f, nil)
			if err != nil {
				return err
			}
			if err := printJSON(cmd, result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "imported %d, %d errors, %d duplicates\n",
				result.Success, len(result.Errors), len(result.Duplicates))
			return nil
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "CSV or XLSX file to import (required)")
	command.Flags().BoolVar(&dryRun, "dry-run", false, "Only report what would be imported")
	_ = command.MarkFlagRequired("file")

	return command
}

func exportCmd() *cobra.Command {
	var exportType, format, outDir string

	command := &cobra.Command{
		Use:   "export",
		Short: "Export the catalogue",
		Long:  "artikelen or veiligheidsbladen as CSV or XLSX; alles as a ZIP of both CSV files or one workbook.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			file, err := a.exportService().Export(cmd.Context(), exportType, format)
			if err != nil {
				return err
			}

			target := filepath.Join(outDir, file.FileName)
			if err := os.WriteFile(target, file.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", target, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}

	command.Flags().StringVarP(&exportType, "type", "t", "alles", "Dataset: artikelen, veiligheidsbladen or alles")
	command.Flags().StringVar(&format, "format", "csv", "File format: csv or xlsx")
	command.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to write the export to")

	return command
}

func templateCmd() *cobra.Command {
	var out string

	command := &cobra.Command{
		Use:   "template",
		Short: "Write the article import template",
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf bytes.Buffer
			if err := bulk.WriteTemplate(&buf); err != nil {
				return err
			}
			return writeOutput(cmd, out, buf.Bytes())
		},
	}

	command.Flags().StringVarP(&out, "out", "o", "artikelen_import_template.csv", "Target file, - for stdout")

	return command
}

func exampleZipCmd() *cobra.Command {
	var out string
	var maxSizeMB int64

	command := &cobra.Command{
		Use:   "example-zip",
		Short: "Write an example safety sheet archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := service.ExampleArchive(maxSizeMB)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, data)
		},
	}

	command.Flags().StringVarP(&out, "out", "o", "veiligheidsbladen_voorbeeld.zip", "Target file, - for stdout")
	command.Flags().Int64Var(&maxSizeMB, "max-size-mb", 50, "Archive size limit mentioned in the instructions")

	return command
}

func writeOutput(cmd *cobra.Command, target string, data []byte) error {
	if target == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), target)
	return nil
}
