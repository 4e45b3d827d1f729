package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quasilyte/keytone"
	"github.com/quasilyte/keytone/keyscript"
	"github.com/quasilyte/keytone/wavetab"
)

var (
	flagRenderScript string
	flagRenderOut    string
	flagRenderTail   time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a key script to a WAV file",
	Long: `Render plays a key script through the configured mixer
without real-time constraints and writes a 16-bit mono WAV file.`,
	RunE: runRender,
}

func init() {
	flags := renderCmd.Flags()
	flags.StringVar(&flagRenderScript, "script", "", "key script to render (required)")
	flags.StringVarP(&flagRenderOut, "out", "o", "", "output WAV file (required)")
	flags.DurationVar(&flagRenderTail, "tail", time.Second, "extra time to render after the last event")
}

func runRender(cmd *cobra.Command, args []string) error {
	if flagRenderScript == "" || flagRenderOut == "" {
		return errors.New("both --script and --out are required")
	}
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	events, err := keyscript.Load(flagRenderScript)
	if err != nil {
		return err
	}
	engine, err := config.NewEngine()
	if err != nil {
		return err
	}

	samples, err := keytone.Render(engine, events, keytone.RenderConfig{
		SampleRate: config.SampleRate,
		Tail:       flagRenderTail,
	})
	if err != nil {
		return err
	}
	volume := float32(config.Volume)
	for i := range samples {
		samples[i] *= volume
	}

	f, err := os.Create(flagRenderOut)
	if err != nil {
		return err
	}
	if err := wavetab.EncodeWAV(f, samples, config.SampleRate); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", flagRenderOut, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	slog.Info("rendered",
		slog.String("out", flagRenderOut),
		slog.Int("events", len(events)),
		slog.Duration("length", time.Duration(len(samples))*time.Second/time.Duration(config.SampleRate)))
	return nil
}
