package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quasilyte/keytone"
)

var (
	cfgFile  string
	logLevel string

	flagMixer  string
	flagPolicy string
	flagShape  string
	flagVolume float64
	flagClips  []string
)

var rootCmd = &cobra.Command{
	Use:   "keytone",
	Short: "Keyboard driven tone generator",
	Long: `keytone turns key presses into tones.

Every key is mapped to a pitch slot. With the poly mixer a tone sounds
while the key is held and fades out after the release; with the overlay
mixer every press plays a one-shot clip.

Settings are read from a YAML file (see --config); the flags override it.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogger)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	addConfigFlags(flags)

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(renderCmd)
}

// addConfigFlags registers the flags that loadConfig reads.
func addConfigFlags(flags *pflag.FlagSet) {
	flags.StringVar(&cfgFile, "config", "", "YAML config file")
	flags.StringVar(&flagMixer, "mixer", "", "mixer: poly or overlay")
	flags.StringVar(&flagPolicy, "policy", "", "poly mixer policy: average, sum or softclip")
	flags.StringVar(&flagShape, "shape", "", "waveform: sine, triangle, square or saw")
	flags.Float64Var(&flagVolume, "volume", 0, "output volume")
	flags.StringArrayVar(&flagClips, "clip", nil, "overlay mixer WAV clip (repeatable)")
}

func initLogger() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: bad log level %q, using info\n", logLevel)
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// loadConfig reads the config file (if any), applies the flag
// overrides and fills in the defaults.
func loadConfig(cmd *cobra.Command) (*keytone.Config, error) {
	var config keytone.Config
	if cfgFile != "" {
		data, err := os.ReadFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgFile, err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("mixer") {
		config.Mixer = strings.ToLower(flagMixer)
	}
	if flags.Changed("policy") {
		config.Policy = flagPolicy
	}
	if flags.Changed("shape") {
		config.Shape = flagShape
	}
	if flags.Changed("volume") {
		config.Volume = flagVolume
	}
	if flags.Changed("clip") {
		config.Clips = flagClips
		if config.Mixer == "" {
			config.Mixer = "overlay"
		}
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
