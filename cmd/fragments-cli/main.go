package main

import (
	"context"
	"errors"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/clientcli"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	username   string
	password   string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "fragments-cli",
	Version: version,
	Short:   "Client for a fragments server",
	Long: `fragments-cli - client for a fragments server

Credentials are resolved from, in increasing precedence:
  1. the selected profile in ~/.fragments/config.yaml
  2. FRAGMENTS_ENDPOINT, FRAGMENTS_USERNAME, FRAGMENTS_PASSWORD
  3. --endpoint, --username, --password

Fragments can be fetched converted by adding an extension to the id:
  fragments-cli get 3f1c... (stored type)
  fragments-cli get 3f1c....html (markdown rendered to html)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "profiles file (default: ~/.fragments/config.yaml, env: FRAGMENTS_CLI_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (default: the default profile, env: FRAGMENTS_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:8080, env: FRAGMENTS_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "username (env: FRAGMENTS_USERNAME)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "password (env: FRAGMENTS_PASSWORD)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		_ = getFormatter().FormatError(os.Stderr, err)
		os.Exit(1)
	}
}

// getConfigPath returns the profiles file from --config, the environment or
// the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges the profile, env vars and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	name := profile
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}
	explicit := name != "" || cfgFile != ""

	configFile, err := clientcli.LoadConfigFile(getConfigPath())
	switch {
	case err == nil:
		p, profileErr := configFile.GetProfile(name)
		if profileErr != nil && (name != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles)) {
			return nil, profileErr
		}
		configs = append(configs, clientcli.ConfigFromProfile(p))
	case explicit:
		// A missing default profiles file is fine; a requested one is not.
		return nil, err
	}

	configs = append(configs,
		clientcli.ConfigFromEnv(),
		&clientcli.Config{Endpoint: endpoint, Username: username, Password: password},
	)

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client with credentials.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	if err := cfg.ValidateWithAuth(); err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// exitError is returned when output was already written and only a non-zero
// exit status is needed.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return "exit status " + strconv.Itoa(e.code)
}
