// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/ik5/audvox/formats/wav"
)

var (
	renderOutput  string
	renderSeconds float64
	renderLoop    bool
	renderVolume  float32
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Mix a file offline into a WAV file",
	Long: `Load a file, play it through the software mixer without a device
and write the mix as 16-bit PCM WAV at the configured device format.

Without --seconds the render covers the length of the file.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output WAV file (required)")
	renderCmd.Flags().Float64Var(&renderSeconds, "seconds", 0, "length of the render")
	renderCmd.Flags().BoolVar(&renderLoop, "loop", false, "loop the file")
	renderCmd.Flags().Float32Var(&renderVolume, "volume", 1, "master volume, 0 to 1")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if renderOutput == "" {
		return errors.New("output file is required, use -o flag")
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	buf, err := s.eng.LoadBuffer(args[0])
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}

	seconds := renderSeconds
	if seconds <= 0 {
		if renderLoop {
			return errors.New("--loop needs --seconds")
		}
		seconds = buf.Duration().Seconds()
	}

	s.eng.SetVolume(renderVolume)

	h, err := s.eng.Open(args[0], false)
	if err != nil {
		return err
	}

	voices := s.eng.Voices()
	voices.SetLooping(h, renderLoop)
	voices.Play(h)

	rate, channels := s.mixer.SampleRate(), s.mixer.Channels()
	total := int(math.Ceil(seconds * float64(rate)))
	mix := make([]float32, total*channels)

	const chunk = 1024
	for off := 0; off < total; off += chunk {
		frames := min(chunk, total-off)
		s.mixer.Read(mix[off*channels : (off+frames)*channels])
		s.eng.ExecuteMessages()
	}

	f, err := os.Create(renderOutput)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := wav.WriteFloat32(w, rate, channels, mix); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write WAV: %w", err)
	}

	if err := errors.Join(w.Flush(), f.Close()); err != nil {
		return err
	}

	s.logger.Info("rendered", "file", renderOutput, "frames", total, "rate", rate, "channels", channels)

	return nil
}
