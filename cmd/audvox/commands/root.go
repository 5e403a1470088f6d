// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ik5/audvox"
	"github.com/ik5/audvox/backend/soft"
	"github.com/ik5/audvox/config"
	"github.com/ik5/audvox/vfs"
)

var (
	// Global flags
	configPath string
	rootDir    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "audvox",
	Short: "Audio voice and buffer engine tools",
	Long: `audvox - play, render and inspect audio with the audvox engine.

File names are resolved below --root. The extension may be left out, in
which case the configured extensions are tried in order.

Examples:
  # Play two files at once
  audvox play music/theme.ogg sfx/door

  # Stream a long track in a loop
  audvox play --stream --loop music/theme

  # Render five seconds into a WAV file
  audvox render sfx/door -o door.wav --seconds 5`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "directory the file names are resolved in")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig returns the --config file overlaid on the defaults.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	lvl, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}

	if verbose {
		lvl = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// session is an engine on a software mixer, shared by play and render.
type session struct {
	cfg    config.Config
	logger *slog.Logger
	mixer  *soft.Mixer
	eng    *audvox.Engine
}

func newSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	mixer, err := soft.New(cfg.Device.SampleRate, cfg.Device.Channels,
		soft.WithMaxSources(cfg.Voices.Capacity))
	if err != nil {
		return nil, fmt.Errorf("failed to create mixer: %w", err)
	}

	eng, err := audvox.New(cfg, mixer, vfs.OS(rootDir), audvox.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return &session{cfg: cfg, logger: eng.Logger(), mixer: mixer, eng: eng}, nil
}

func (s *session) Close() {
	s.eng.Close()
}
