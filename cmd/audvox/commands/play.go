// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audvox"
	"github.com/ik5/audvox/backend/otoout"
)

var (
	playStream   bool
	playLoop     bool
	playGroupMax int
	playVolume   float32
)

var playCmd = &cobra.Command{
	Use:   "play <file>...",
	Short: "Play files on the default audio device",
	Long: `Play one or more files at once on the default audio device.

Playback ends when every voice has stopped, or on Ctrl-C. Looping voices
only end on Ctrl-C.

With --group-max the files are played as members of one group that holds
at most that many voices; the rest are refused.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playStream, "stream", false, "decode while playing instead of loading whole files")
	playCmd.Flags().BoolVar(&playLoop, "loop", false, "loop every file")
	playCmd.Flags().IntVar(&playGroupMax, "group-max", 0, "play through a group limited to this many voices")
	playCmd.Flags().Float32Var(&playVolume, "volume", 1, "master volume, 0 to 1")

	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	if playStream && playGroupMax > 0 {
		return errors.New("--stream and --group-max cannot be combined")
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	s.eng.SetVolume(playVolume)

	handles, err := startVoices(s.eng, args)
	if err != nil {
		return err
	}
	if len(handles) == 0 {
		return errors.New("no voice could be started")
	}

	out, err := otoout.Open(s.mixer, s.cfg.Device.BufferDuration())
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return wait(ctx, s, out)
}

func startVoices(eng *audvox.Engine, names []string) ([]audvox.Handle, error) {
	var handles []audvox.Handle

	if playGroupMax > 0 {
		groups := eng.Groups()
		g := groups.Create(playGroupMax)

		for _, name := range names {
			buf, err := eng.LoadBuffer(name)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", name, err)
			}

			h, err := groups.PlayBuffer(g, buf, playLoop)
			if err != nil {
				return nil, err
			}
			if !h.Valid() {
				eng.Logger().Warn("voice refused", "file", name)
				continue
			}
			handles = append(handles, h)
		}

		return handles, nil
	}

	voices := eng.Voices()
	for _, name := range names {
		h, err := eng.Open(name, playStream)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		if !h.Valid() {
			eng.Logger().Warn("voice refused", "file", name)
			continue
		}

		voices.SetLooping(h, playLoop)
		voices.Play(h)
		handles = append(handles, h)
	}

	return handles, nil
}

// wait pumps engine messages until every voice is gone or stopped.
func wait(ctx context.Context, s *session, out *otoout.Output) error {
	t := time.NewTicker(20 * time.Millisecond)
	defer t.Stop()

	voices := s.eng.Voices()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("interrupted")
			return nil
		case <-t.C:
		}

		if err := out.Err(); err != nil {
			return fmt.Errorf("audio device: %w", err)
		}

		s.eng.ExecuteMessages()

		live := 0
		for _, h := range voices.Handles() {
			if !voices.IsStopped(h) {
				live++
			}
		}

		if live == 0 {
			return nil
		}
	}
}
