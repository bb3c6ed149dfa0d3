package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/haskel/powermon/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	Long:  `Display the configuration that a run would use (file, environment substitution and defaults).`,
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var (
	validateOnly bool
	configJSON   bool
)

func init() {
	configCmd.Flags().BoolVar(&validateOnly, "validate", false, "only validate config, don't print")
	configCmd.Flags().BoolVar(&configJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := config.LoadOrDefault(cfgFile)
	if err == nil {
		err = cfg.Validate()
	}

	return printConfig(cmd.OutOrStdout(), cfg, err, validateOnly, configJSON)
}

func printConfig(w io.Writer, cfg *config.Config, cfgErr error, validate, asJSON bool) error {
	if cfgErr != nil {
		if asJSON {
			fmt.Fprintf(w, `{"valid":false,"error":%q}`+"\n", cfgErr.Error())
		} else {
			fmt.Fprintf(w, "Configuration invalid: %v\n", cfgErr)
		}
		return cfgErr
	}

	if validate {
		if asJSON {
			fmt.Fprintln(w, `{"valid":true}`)
		} else {
			fmt.Fprintln(w, "Configuration is valid")
		}
		return nil
	}

	shown := *cfg
	if shown.Auth.Password != "" {
		shown.Auth.Password = "********"
	}

	if asJSON {
		data, err := json.MarshalIndent(&shown, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		return err
	}
	fmt.Fprint(w, string(data))
	return nil
}
