package main

import (
	"github.com/spf13/cobra"

	"exifpreset/internal/app"
	"exifpreset/internal/config"
	appErrors "exifpreset/internal/errors"
	"exifpreset/internal/infra/exif"
	"exifpreset/internal/infra/fs"
	"exifpreset/internal/presentation"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect PATH...",
	Short: "Show the current camera make and model of photos",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVarP(&flags.Recursive, config.FlagRecursive, "r", false, "Descend into subdirectories")
	inspectCmd.Flags().IntVar(&flags.Workers, config.FlagWorkers, 0, "EXIF reader workers (default: number of CPUs)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sources, err := fs.NewOSSelector(cfg.Recursive).Select(args)
	if err != nil {
		return err
	}

	inspector := app.Inspector{
		Exif:    exif.Reader{},
		Workers: cfg.Workers,
		Logger:  newLogger(config.UIPlain, cfg.Verbose),
	}
	infos, err := inspector.Inspect(cmd.Context(), sources)
	if err != nil {
		return appErrors.Wrap(appErrors.Internal, "inspect", "", err)
	}

	presentation.Printer{Writer: cmd.OutOrStdout(), Verbose: cfg.Verbose}.PrintInspect(infos)
	return nil
}
