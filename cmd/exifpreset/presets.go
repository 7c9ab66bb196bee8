package main

import (
	"github.com/spf13/cobra"

	"exifpreset/internal/domain"
	"exifpreset/internal/presentation"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the camera presets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		presentation.Printer{Writer: cmd.OutOrStdout()}.PrintPresets(domain.Presets())
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
