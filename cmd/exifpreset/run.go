package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"exifpreset/internal/app"
	"exifpreset/internal/config"
	"exifpreset/internal/domain"
	appErrors "exifpreset/internal/errors"
	"exifpreset/internal/infra/exif"
	"exifpreset/internal/infra/fs"
	"exifpreset/internal/presentation"
	"exifpreset/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run --mode leica|xiaomi PATH...",
	Short: "Save preset-tagged copies of photos",
	Long: `Copies every selected JPEG into the gallery as IMG_<millis>_<index><suffix>.jpg
and writes the preset's EXIF Make and Model into the copy. Directories expand
to the JPEGs they contain.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRewrite,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&modeFlag, config.FlagMode, "m", "", "Camera preset: leica or xiaomi")
	f.StringVarP(&flags.OutputDir, config.FlagOut, "o", "Gallery", "Gallery root directory")
	f.StringVar(&flags.Collection, config.FlagCollection, app.DefaultCollection, "Collection folder below the gallery root")
	f.BoolVar(&flags.Flat, config.FlagFlat, false, "Save directly into the gallery root")
	f.StringVar(&flags.Codec, config.FlagCodec, config.CodecNative, "EXIF writer: native or exiftool")
	f.StringVar(&flags.UI, config.FlagUI, config.UIAuto, "Progress display: auto, tui, bar or plain")
	f.BoolVarP(&flags.Recursive, config.FlagRecursive, "r", false, "Descend into subdirectories")
	f.BoolVarP(&flags.DryRun, config.FlagDryRun, "d", false, "Show what would be saved without writing")
	f.IntVar(&flags.Workers, config.FlagWorkers, 0, "EXIF reader workers for the preview (default: number of CPUs)")
	rootCmd.AddCommand(runCmd)
}

func runRewrite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Mode == "" {
		return appErrors.Wrap(appErrors.InvalidConfig, "run", "", fmt.Errorf("--mode is required"))
	}
	preset, err := domain.Resolve(cfg.Mode)
	if err != nil {
		return appErrors.Wrap(appErrors.UnknownPreset, "run", "", err)
	}

	sources, err := fs.NewOSSelector(cfg.Recursive).Select(args)
	if err != nil {
		return err
	}

	ui := pickUI(cfg.UI, os.Stdout)
	logger := newLogger(ui, cfg.Verbose)

	codec, closeCodec, err := newCodec(cfg.Codec)
	if err != nil {
		return err
	}
	defer closeCodec()

	rewriter := &app.Rewriter{
		Store:      fs.NewOSStore(cfg.OutputDir, cfg.Flat),
		Codec:      codec,
		Collection: cfg.Collection,
		Logger:     logger,
	}
	inspector := &app.Inspector{
		Exif:    exif.Reader{},
		Workers: cfg.Workers,
		Logger:  logger,
	}

	if ui == config.UITUI {
		return runTUI(cmd.Context(), cfg, preset, sources, inspector, rewriter)
	}

	printer := presentation.Printer{Writer: os.Stdout, Verbose: cfg.Verbose}

	if cfg.DryRun {
		infos, err := inspector.Inspect(cmd.Context(), sources)
		if err != nil {
			return appErrors.Wrap(appErrors.Internal, "inspect", "", err)
		}
		printer.PrintDryRun(preset, app.Preview(infos, preset, time.Now()))
		return nil
	}

	onProgress := app.ProgressFunc(printer.Progress)
	var bar *presentation.BarSink
	if ui == config.UIBar {
		bar = presentation.NewBarSink(os.Stderr, len(sources))
		onProgress = bar.Progress
		rewriter.OnItem = bar.Item
	}

	result := rewriter.Run(cmd.Context(), sources, preset, onProgress)
	if bar != nil {
		_ = bar.Finish()
	}

	printer.PrintResult(result)
	return resultError(result)
}

func runTUI(ctx context.Context, cfg config.Config, preset domain.Preset, sources []app.SourceHandle, inspector *app.Inspector, rewriter *app.Rewriter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var program *tea.Program
	var result domain.BatchResult
	finished := make(chan struct{})
	started := false

	model := tui.NewModel(tui.Config{
		Preset:    preset,
		OutputDir: cfg.OutputDir,
		DryRun:    cfg.DryRun,
		Verbose:   cfg.Verbose,
		Cancel:    cancel,
		StartRewrite: func() tea.Cmd {
			started = true
			go func() {
				defer close(finished)
				result = rewriter.Run(ctx, sources, preset, func(message string) {
					program.Send(tui.RewriteProgressMsg{Message: message})
				})
				program.Send(tui.DoneMsg{Result: result})
			}()
			return nil
		},
	})

	program = tea.NewProgram(model)
	rewriter.OnItem = func(item domain.BatchItem, total int) {
		program.Send(tui.ItemDoneMsg{Item: item, Total: total})
	}
	inspector.OnProgress = func(current, total int) {
		program.Send(tui.InspectProgressMsg{Current: current, Total: total})
	}

	go func() {
		infos, err := inspector.Inspect(ctx, sources)
		if err != nil {
			program.Send(tui.ErrorMsg{Err: err})
			return
		}
		program.Send(tui.PreviewReadyMsg{Items: app.Preview(infos, preset, time.Now())})
	}()

	final, err := program.Run()
	if err != nil {
		return appErrors.Wrap(appErrors.Internal, "tui", "", err)
	}

	// started is only written from the model's update loop, which has
	// stopped by now.
	if started {
		cancel()
		<-finished
		if m, ok := final.(tui.Model); ok && m.Quitting {
			presentation.Printer{Writer: os.Stdout}.PrintResult(result)
		}
		return resultError(result)
	}

	if m, ok := final.(tui.Model); ok && m.Phase == tui.PhaseError {
		return appErrors.Wrap(appErrors.Internal, "inspect", "", m.Err)
	}
	return nil
}

func newCodec(name string) (app.ExifCodec, func(), error) {
	if name == config.CodecExiftool {
		writer, err := exif.NewExiftoolWriter()
		if err != nil {
			return nil, nil, appErrors.Wrap(appErrors.ExifFailure, "exiftool", "", err)
		}
		return writer, func() { _ = writer.Close() }, nil
	}
	return exif.Writer{}, func() {}, nil
}

// resultError turns an incomplete batch into a PartialFailure so the process
// exits with status 2.
func resultError(result domain.BatchResult) error {
	if result.Succeeded == result.Total {
		return nil
	}
	missing := result.Total - result.Succeeded
	return appErrors.Wrap(appErrors.PartialFailure, "run", "", fmt.Errorf("%d of %d photos were not saved", missing, result.Total))
}
