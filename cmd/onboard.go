package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"drawchat/config"
	"drawchat/panel"
	"drawchat/provider"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize drawchat configuration",
	Long:  `Pick a chat provider, store its API key, and write the default config file.`,
	RunE:  runOnboard,
}

func init() {
	rootCmd.AddCommand(onboardCmd)
}

func runOnboard(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config already exists at:", configPath)
		fmt.Println("To reconfigure, edit the file directly or delete it first.")
		return nil
	}

	var (
		selectedProvider string
		apiKey           string
		openBrowser      = true
	)

	options := make([]huh.Option[string], 0)
	for _, name := range provider.Names() {
		options = append(options, huh.NewOption(name, name))
	}
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose your chat provider").
				Description("The chat panel sends the conversation to this backend.").
				Options(options...).
				Value(&selectedProvider),
		),
	).Run()
	if err != nil {
		return err
	}

	reg, _ := provider.Lookup(selectedProvider)
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Enter your "+selectedProvider+" API key").
				Description("Create one at "+reg.KeyPortalURL).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("API key is required")
					}
					return nil
				}).
				Value(&apiKey),
		),
	).Run()
	if err != nil {
		return err
	}

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Open the diagram editor in a browser on start?").
				Value(&openBrowser),
		),
	).Run()
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Chat.Provider = selectedProvider
	cfg.Diagram.OpenBrowser = openBrowser
	if err := cfg.Save(); err != nil {
		return err
	}

	credPath, err := config.CredentialPath(selectedProvider)
	if err != nil {
		return err
	}
	if err := panel.NewFileStore(credPath).Save(strings.TrimSpace(apiKey)); err != nil {
		return err
	}

	fmt.Println("Config written to:", configPath)
	fmt.Println("Run `drawchat` to start the workspace.")
	return nil
}
