package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/genbridge/gateway/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var writeConfig bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration genbridge would start with. API keys are masked.
With --write the server, security and logging sections are saved to the config file.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&writeConfig, "write", false, "write the config file and exit")
}

func runConfig(cmd *cobra.Command, args []string) error {
	// --write 允许 --config 指向尚不存在的文件
	if configErr != nil && !(writeConfig && errors.Is(configErr, fs.ErrNotExist)) {
		return configErr
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if writeConfig {
		path := viper.ConfigFileUsed()
		if err := config.SaveConfig(cfg, path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	}

	printConfig(cmd.OutOrStdout(), cfg)
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Server:")
	fmt.Fprintf(w, "   Listen: %s:%d (%s)\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.Mode)
	fmt.Fprintf(w, "   Static dir: %s\n", cfg.Server.StaticDir)
	fmt.Fprintf(w, "   CORS: %v\n", cfg.Security.EnableCORS)

	fmt.Fprintln(w, "AI provider:")
	fmt.Fprintf(w, "   URL: %s\n", cfg.AI.APIURL)
	fmt.Fprintf(w, "   Default model: %s\n", cfg.AI.DefaultModel)
	fmt.Fprintf(w, "   API key: %s\n", maskAPIKey(cfg.AI.APIKey))

	fmt.Fprintln(w, "Image provider:")
	fmt.Fprintf(w, "   URL: %s\n", cfg.Image.APIURL)
	fmt.Fprintf(w, "   Default model: %s\n", cfg.Image.DefaultModel)
	fmt.Fprintf(w, "   API key: %s\n", maskAPIKey(cfg.Image.APIKey))
	if cfg.Image.Referrer != "" {
		fmt.Fprintf(w, "   Referrer: %s\n", cfg.Image.Referrer)
	}

	fmt.Fprintln(w, "Logging:")
	fmt.Fprintf(w, "   Level: %s, file: %s\n", cfg.Logging.Level, cfg.Logging.Output)
}
