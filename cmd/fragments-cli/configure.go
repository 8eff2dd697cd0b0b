package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/clientcli"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage server profiles in the configuration file.

Profiles save the endpoint and credentials for one or more fragments
servers; select one with --profile or FRAGMENTS_PROFILE.

Configuration is stored in ~/.fragments/config.yaml`,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured profiles",
	Long: `List all profiles configured in the config file.

The default profile is marked with an asterisk (*).`,
	RunE: runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new profile",
	Long: `Add a new profile interactively.

You will be prompted for:
  - Endpoint URL
  - Username
  - Password
  - Whether to set as default

The endpoint connection will be tested before saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile details",
	Long: `Show details for a profile.

If no name is provided, shows the default profile.
Passwords are hidden by default; use --show-secrets to reveal them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigureShow,
}

var showSecrets bool

func init() {
	configureCmd.AddCommand(configureListCmd)
	configureCmd.AddCommand(configureAddCmd)
	configureCmd.AddCommand(configureRemoveCmd)
	configureCmd.AddCommand(configureSetDefaultCmd)
	configureCmd.AddCommand(configureShowCmd)

	configureShowCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show passwords")
	configureListCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show passwords")
}

func runConfigureList(cmd *cobra.Command, _ []string) error {
	cfg, err := clientcli.LoadConfigFile(getConfigPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg == nil || len(cfg.Profiles) == 0 {
		fmt.Println("No profiles configured.")
		fmt.Println("Run 'fragments-cli configure add <name>' to create one.")
		return nil
	}

	defaultProfile, err := cfg.GetDefaultProfile()
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileList(cmd.OutOrStdout(), cfg.Profiles, defaultProfile.Name, showSecrets)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	configPath := getConfigPath()

	cfg, err := clientcli.LoadConfigFile(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = &clientcli.ConfigFile{}
	}

	existingProfile, _ := cfg.GetProfile(name)
	if existingProfile != nil {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Profile '%s' already exists. Update it", name),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	endpointPrompt := promptui.Prompt{
		Label:    "Endpoint URL",
		Default:  clientcli.DefaultEndpoint,
		Validate: validateEndpoint,
	}
	endpointURL, err := endpointPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	usernamePrompt := promptui.Prompt{
		Label: "Username",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return clientcli.ErrUsernameRequired
			}
			return nil
		},
	}
	usernameVal, err := usernamePrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	passwordPrompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
	}
	passwordVal, err := passwordPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	setAsDefault := len(cfg.Profiles) == 0 || (existingProfile != nil && existingProfile.Default)
	if !setAsDefault {
		defaultPrompt := promptui.Prompt{
			Label:     "Set as default profile",
			IsConfirm: true,
		}
		if _, promptErr := defaultPrompt.Run(); promptErr == nil {
			setAsDefault = true
		}
	}

	newProfile := clientcli.Profile{
		Name:     name,
		Endpoint: strings.TrimSuffix(endpointURL, "/"),
		Username: strings.TrimSpace(usernameVal),
		Password: passwordVal,
	}

	fmt.Print("Testing connection... ")
	if connErr := testServerConnection(cmd.Context(), &newProfile); connErr != nil {
		fmt.Println("FAILED")
		fmt.Printf("Warning: %v\n", connErr)

		continuePrompt := promptui.Prompt{
			Label:     "Save profile anyway",
			IsConfirm: true,
		}
		if _, promptErr := continuePrompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	} else {
		fmt.Println("OK")
	}

	if existingProfile != nil {
		err = cfg.UpdateProfile(newProfile)
	} else {
		err = cfg.AddProfile(newProfile)
	}
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	if setAsDefault {
		if err := cfg.SetDefault(name); err != nil {
			return err
		}
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	if existingProfile != nil {
		fmt.Printf("Profile '%s' updated.\n", name)
	} else {
		fmt.Printf("Profile '%s' added.\n", name)
	}

	if setAsDefault {
		fmt.Printf("Set as default profile.\n")
	}

	return nil
}

func runConfigureRemove(_ *cobra.Command, args []string) error {
	name := args[0]
	configPath := getConfigPath()

	cfg, err := clientcli.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err = cfg.GetProfile(name); err != nil {
		return err
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Remove profile '%s'", name),
		IsConfirm: true,
	}
	if _, promptErr := prompt.Run(); promptErr != nil {
		fmt.Println("Cancelled.")
		return nil //nolint:nilerr // User cancelled, not an error
	}

	if err := cfg.RemoveProfile(name); err != nil {
		return fmt.Errorf("remove profile: %w", err)
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(_ *cobra.Command, args []string) error {
	name := args[0]
	configPath := getConfigPath()

	cfg, err := clientcli.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.SetDefault(name); err != nil {
		return err
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Default profile set to '%s'.\n", name)
	return nil
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	cfg, err := clientcli.LoadConfigFile(getConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	p, err := cfg.GetProfile(name)
	if err != nil {
		return err
	}

	defaultProfile, err := cfg.GetDefaultProfile()
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileShow(cmd.OutOrStdout(), *p, p.Name == defaultProfile.Name, showSecrets)
}

func validateEndpoint(input string) error {
	if input == "" {
		return errors.New("endpoint URL is required")
	}
	parsedURL, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	return nil
}

// testServerConnection checks that the server is up and, when a password was
// given, that the credentials are accepted.
func testServerConnection(ctx context.Context, p *clientcli.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := clientcli.New(clientcli.ConfigFromProfile(p), clientcli.WithTimeout(5*time.Second))
	if err != nil {
		return err
	}

	if _, err := client.Health(ctx); err != nil {
		return fmt.Errorf("could not connect to server: %w", err)
	}

	if p.Password == "" {
		return nil
	}

	if _, err := client.List(ctx, clientcli.ListOptions{}); err != nil {
		return fmt.Errorf("credentials rejected: %w", err)
	}
	return nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
