package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/calyptra/gatepatch/internal/errx"
	"github.com/calyptra/gatepatch/pkg/capture"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Inspect and export the capture database",
}

var captureExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a run's records as a CBOR stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("db")
		runID, _ := cmd.Flags().GetString("run")
		outPath, _ := cmd.Flags().GetString("out")
		if dbPath == "" || runID == "" {
			return ErrCaptureArgs
		}

		store, err := capture.Open(dbPath, runID)
		if err != nil {
			return errx.Wrap(ErrOpenCapture, err)
		}
		defer store.Close()

		out := os.Stdout
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return errx.Wrap(ErrCaptureExport, err)
			}
			defer f.Close()
			out = f
		}

		n, err := store.Export(cmd.Context(), runID, out)
		if err != nil {
			return errx.Wrap(ErrCaptureExport, err)
		}
		fmt.Fprintf(os.Stderr, "exported %d records\n", n)
		return nil
	},
}

var capturePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records older than a retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("db")
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if dbPath == "" {
			return ErrCaptureArgs
		}

		store, err := capture.Open(dbPath, "")
		if err != nil {
			return errx.Wrap(ErrOpenCapture, err)
		}
		defer store.Close()

		n, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "pruned %d records\n", n)
		return nil
	},
}

func init() {
	captureExportCmd.Flags().String("db", "", "capture database path")
	captureExportCmd.Flags().String("run", "", "run ID to export")
	captureExportCmd.Flags().String("out", "", "output file (default stdout)")

	capturePruneCmd.Flags().String("db", "", "capture database path")
	capturePruneCmd.Flags().Duration("older-than", 7*24*time.Hour, "retention window")

	captureCmd.AddCommand(captureExportCmd)
	captureCmd.AddCommand(capturePruneCmd)
	rootCmd.AddCommand(captureCmd)
}
