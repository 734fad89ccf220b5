// Package cmd implements the drawchat CLI.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"drawchat/config"
	"drawchat/diagram"
	"drawchat/logger"
	"drawchat/panel"
	"drawchat/provider"
	"drawchat/tui"
)

var rootCmd = &cobra.Command{
	Use:   "drawchat",
	Short: "Diagram workspace with an AI chat side panel",
	Long: `drawchat opens a diagram editor workspace: the diagrams.net editor in
your browser (bridged into the app) and a resizable AI chat panel in the
terminal.

Keys:
  ctrl+b   collapse / expand the chat panel
  ctrl+k   edit the API key
  ctrl+l   toggle the log tail
  ctrl+c   quit

Drag the divider with the mouse to resize the chat panel.`,
	RunE: runRoot,
}

var flagNoBrowser bool

func init() {
	rootCmd.Flags().BoolVar(&flagNoBrowser, "no-browser", false, "Do not open the diagram editor in a browser")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runRoot(_ *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("drawchat needs an interactive terminal")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	name := cfg.Chat.Provider
	reg, ok := provider.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown provider %q (supported: %s)", name, strings.Join(provider.Names(), ", "))
	}

	credPath, err := config.CredentialPath(name)
	if err != nil {
		return err
	}
	machine := panel.NewMachine(panel.NewFileStore(credPath))
	machine.SeedCredential(resolveAPIKey(cfg, reg, name))

	host := diagram.NewHost(cfg.Diagram, nil)
	ctx := context.Background()
	if err := host.Start(ctx); err != nil {
		logger.Warn("diagram bridge unavailable", "err", err)
		host = nil
	} else {
		defer host.Stop(ctx)
		if cfg.Diagram.OpenBrowser && !flagNoBrowser {
			if err := openBrowser(host.URL()); err != nil {
				logger.Warn("could not open browser", "url", host.URL(), "err", err)
			}
		}
	}

	return tui.Run(machine, host, buildCaller(cfg, reg, name))
}

// buildCaller wires the configured provider behind the panel's chat
// effect. The provider is rebuilt per call so a credential edited in the
// panel takes effect immediately.
func buildCaller(cfg *config.Config, reg provider.Registration, name string) tui.ChatCaller {
	pc := cfg.Provider(name)
	return func(ctx context.Context, credential string, messages []provider.Message) (string, error) {
		if cfg.Chat.TimeoutSeconds > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Chat.TimeoutSeconds)*time.Second)
			defer cancel()
		}

		p := reg.Constructor(provider.Options{
			APIKey:      credential,
			APIBase:     resolveAPIBase(pc, reg),
			ModelName:   cfg.Chat.ModelName,
			MaxTokens:   cfg.Chat.MaxTokens,
			Temperature: cfg.Chat.Temperature,
			ExtraBody:   pc.ExtraBody,
		})
		resp, err := p.Chat(ctx, &provider.Request{Messages: messages})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}
}

// resolveAPIKey falls back from config to environment when the stored
// credential is empty.
func resolveAPIKey(cfg *config.Config, reg provider.Registration, name string) string {
	if k := strings.TrimSpace(cfg.Provider(name).APIKey); k != "" {
		return k
	}
	return strings.TrimSpace(os.Getenv(reg.EnvKey))
}

func resolveAPIBase(pc *config.ProviderConfig, reg provider.Registration) string {
	if b := strings.TrimSpace(pc.APIBase); b != "" {
		return b
	}
	return strings.TrimSpace(os.Getenv(reg.EnvBase))
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
