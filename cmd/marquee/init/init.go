// Package initcmder provides the init command for initializing a local
// .marquee directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/pkg/config"
)

const (
	dirName    = ".marquee"
	configFile = "config.toml"
)

const initLongDesc string = `Initialize a new .marquee/ directory in the current working directory.

Creates a local .marquee/ directory that takes precedence over the default
~/.marquee/ directory for configuration, the default vector store file
and the index manifest, and writes a config.toml.

Use --preset to choose the embedding provider the config starts from
(ollama, openai, hashing), or pass an http(s) URL to fetch a config.toml.
An existing config.toml is only replaced when --preset is given.

Examples:
  marquee init
  marquee init --preset hashing
  marquee init --preset https://example.com/marquee/config.toml`

const initShortDesc string = "Initialize a local .marquee/ directory"

type initCommander struct {
	preset string
	out    io.Writer
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Config preset (%s) or URL of a config.toml", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func (c *initCommander) run(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	// Resolve the config before touching the filesystem so a bad preset
	// leaves nothing behind.
	var data []byte
	if c.preset != "" {
		data, err = presetTOML(ctx, c.preset)
		if err != nil {
			return err
		}
	}

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Fprintf(c.out, "Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .marquee directory: %w", err)
		}
		fmt.Fprintf(c.out, "Initialized .marquee directory: %s\n", dir)
	}

	path := filepath.Join(dir, configFile)
	if data == nil {
		if _, err := os.Stat(path); err == nil {
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking config: %w", err)
		}

		cfger, err := config.NewConfiger(dir)
		if err != nil {
			return err
		}
		if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Wrote default config: %s\n", path)
		return nil
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(c.out, "Wrote %s config: %s\n", c.preset, path)
	return nil
}

// presetTOML returns config.toml contents for a named preset or a remote URL.
func presetTOML(ctx context.Context, preset string) ([]byte, error) {
	if strings.HasPrefix(preset, "http://") || strings.HasPrefix(preset, "https://") {
		return fetchConfig(ctx, preset)
	}

	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	if err := config.EncodeTOML(&b, cfg); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// fetchConfig downloads a config.toml and validates it parses.
func fetchConfig(ctx context.Context, url string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating config request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching config from %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching config from %s: HTTP %d", url, resp.StatusCode)
	}

	if _, err := config.ParseConfigTOML(body); err != nil {
		return nil, fmt.Errorf("remote config is invalid: %w", err)
	}

	return body, nil
}
