package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tkamala/darasa/core/batch"
)

// importGrades runs the import pipeline on a grade sheet from disk and
// prints the report.
func (cli *commandLine) importGrades(path string, submittedBy int, opts batch.Options) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	res, err := cli.batchSvc.ProcessFile(context.Background(), content, filepath.Base(path), submittedBy, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Import %s: %d/%d records imported (%d duplicates, %d failed) in %.2fs\n",
		res.Status, res.SuccessfulRecords, res.TotalRecords, res.DuplicateRecords, res.FailedRecords, res.ProcessingTime)
	for _, issue := range res.Errors {
		fmt.Printf("  row %d, %s: %s\n", issue.RowNumber, issue.Field, issue.Message)
	}
	for _, issue := range res.Warnings {
		fmt.Printf("  row %d, %s: %s (%s)\n", issue.RowNumber, issue.Field, issue.Message, issue.Level)
	}
	return nil
}
