package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/straye-as/sds-catalog-api/internal/domain"
)

func validateZipCmd() *cobra.Command {
	var file string

	command := &cobra.Command{
		Use:   "validate-zip",
		Short: "Check a safety sheet archive without storing anything",
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

			result, err := a.documentService().ValidateArchive(cmd.Context(), filepath.Base(file), f)
			if err != nil {
				return err
			}
			if err := printJSON(cmd, result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d valid, %d with errors\n", result.ValidCount, result.ErrorCount)
			return nil
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "ZIP archive (required)")
	_ = command.MarkFlagRequired("file")

	return command
}

func uploadZipCmd() *cobra.Command {
	var file string

	command := &cobra.Command{
		Use:   "upload-zip",
		Short: "Store every valid file of a safety sheet archive",
		Long:  "Files are uploaded one at a time. A failing file is reported and the upload continues with the next one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			result, err := a.documentService().UploadArchive(cmd.Context(), filepath.Base(file), f, nil)
			if err != nil {
				return err
			}

			for _, doc := range result.Documents {
				if doc.Status == domain.DocumentStatusError {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", doc.Bestandsnaam, doc.Message)
				}
			}
			if err := printJSON(cmd, result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d uploaded, %d failed\n", result.SuccessCount, result.ErrorCount)
			return nil
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "ZIP archive (required)")
	_ = command.MarkFlagRequired("file")

	return command
}
