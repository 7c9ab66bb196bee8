package main

import (
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"exifpreset/internal/config"
	"exifpreset/internal/domain"
	"exifpreset/internal/logging"
)

var (
	configPath string
	flags      config.Config
	modeFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "exifpreset",
	Short: "Save copies of photos with a camera preset's EXIF make and model",
	Long: `exifpreset copies JPEG photos into a gallery folder and rewrites the
EXIF Make and Model of every copy to one of a fixed set of camera presets.
The source photos are never modified.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $EXIFPRESET_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, config.FlagVerbose, "v", false, "Verbose output")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	if configPath == "" {
		configPath = config.DefaultPath()
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags.Mode = domain.Mode(modeFlag)
	return config.Resolve(configPath, flags, cmd.Flags().Changed)
}

// pickUI resolves "auto" against the output stream.
func pickUI(ui string, out *os.File) string {
	if ui != config.UIAuto {
		return ui
	}
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		return config.UITUI
	}
	return config.UIPlain
}

// newLogger keeps log lines off the terminal while the TUI owns it.
func newLogger(ui string, verbose bool) logging.Logger {
	var writer io.Writer = os.Stderr
	if ui == config.UITUI {
		writer = io.Discard
	}
	return logging.New(writer, verbose)
}
