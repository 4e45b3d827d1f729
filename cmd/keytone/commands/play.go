package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quasilyte/keytone"
	"github.com/quasilyte/keytone/inputdev"
	"github.com/quasilyte/keytone/keyscript"
)

var (
	flagBackend string
	flagInput   string
	flagDevices []string
	flagScript  string
	flagLinger  time.Duration
	flagHold    time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play tones in real time",
	Long: `Play tones for the key events as they arrive.

The events come from the selected input (a game window or a terminal),
from every --device evdev node and from the --script file, all at once.
Press Esc to exit.`,
	RunE: runPlay,
}

func init() {
	flags := playCmd.Flags()
	flags.StringVar(&flagBackend, "backend", "", "audio backend: ebiten, oto or portaudio (default depends on --input)")
	flags.StringVar(&flagInput, "input", "window", "keyboard input: window, term or none")
	flags.StringArrayVar(&flagDevices, "device", nil, "evdev input device to read (repeatable)")
	flags.StringVar(&flagScript, "script", "", "key script to play")
	flags.DurationVar(&flagLinger, "linger", time.Second, "how long to keep playing after the script ends")
	flags.DurationVar(&flagHold, "hold", 200*time.Millisecond, "terminal key press duration")
}

func runPlay(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := slog.Default()

	backendName := flagBackend
	if backendName == "" {
		backendName = "oto"
		if flagInput == "window" {
			backendName = "ebiten"
		}
	}
	if backendName == "ebiten" && flagInput != "window" {
		return errors.New("the ebiten backend needs the window input")
	}
	be, err := newBackend(backendName)
	if err != nil {
		return err
	}

	engine, err := config.NewEngine()
	if err != nil {
		return err
	}
	controllerConfig := config.ControllerConfig()
	controllerConfig.Source.Channels = be.channels()
	controllerConfig.Source.Format = be.format()
	controllerConfig.Logger = logger
	controller := keytone.NewController(engine, controllerConfig)

	var sources []keytone.EventSource
	var window *windowSource
	switch flagInput {
	case "window":
		window = newWindowSource(logger)
		sources = append(sources, window)
	case "term":
		sources = append(sources, &inputdev.TermSource{Hold: flagHold, Logger: logger})
	case "none":
	default:
		return fmt.Errorf("unknown input %q", flagInput)
	}
	for _, path := range flagDevices {
		sources = append(sources, &inputdev.EvdevSource{Path: path, Logger: logger})
	}
	if flagScript != "" {
		events, err := keyscript.Load(flagScript)
		if err != nil {
			return err
		}
		sources = append(sources, &lingerSource{
			EventSource: &keytone.ScriptSource{Events: events},
			Linger:      flagLinger,
		})
	}
	if len(sources) == 0 {
		return errors.New("no key event sources")
	}

	queue := keytone.NewEventQueue(keytone.EventQueueConfig{
		Size:    config.EventQueueSize * len(sources),
		Backoff: config.Backoff,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return controller.Run(ctx, queue.C())
	})
	g.Go(func() error {
		return keytone.RunSources(ctx, queue, sources...)
	})

	closeAudio, err := be.start(controller.Source())
	if err != nil {
		stop()
		g.Wait()
		return fmt.Errorf("start %s audio: %w", backendName, err)
	}
	defer closeAudio()
	logger.Info("playing",
		slog.String("backend", backendName),
		slog.String("input", flagInput),
		slog.String("mixer", config.Mixer),
		slog.Int("sample_rate", config.SampleRate))

	if window != nil {
		// The window has to live on the main goroutine.
		err := window.run(ctx, controller.Source())
		stop()
		if err != nil {
			g.Wait()
			return err
		}
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, inputdev.ErrQuit) {
		err = nil
	}
	if underruns := controller.Source().Underruns(); underruns != 0 {
		logger.Debug("playback finished", slog.Uint64("underruns", underruns))
	}
	return err
}

// lingerSource keeps the event stream open for a while after
// the wrapped source is done, so the last notes can fade out.
type lingerSource struct {
	keytone.EventSource
	Linger time.Duration
}

func (s *lingerSource) ReadEvents(ctx context.Context, q *keytone.EventQueue) error {
	if err := s.EventSource.ReadEvents(ctx, q); err != nil {
		return err
	}
	t := time.NewTimer(s.Linger)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
