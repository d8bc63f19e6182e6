package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/genbridge/gateway/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	Version   string
	BuildTime string
	cfgFile   string
	envFile   string

	// configErr 在 initConfig 中记录，由各命令在执行时返回
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "genbridge",
	Short: "Gateway in front of text and image generation APIs",
	Long: `genbridge serves a small browser frontend and proxies chat completions,
model listings and image generation to the configured upstream providers.
Provider settings come from AI_* and IMAGE_* environment variables.`,
	PreRun: bindServerFlags,
	RunE:   runServe, // 默认启动服务器
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// 全局标志
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with provider settings")
	rootCmd.PersistentFlags().String("log-file", "logs/genbridge.log", "log file path")

	// 服务器标志（直接在root命令使用）
	addServerFlags(rootCmd)

	viper.BindPFlag("logging.output", rootCmd.PersistentFlags().Lookup("log-file"))
}

func addServerFlags(c *cobra.Command) {
	c.Flags().String("host", "0.0.0.0", "server host")
	c.Flags().Int("port", 8111, "server port")
	c.Flags().String("mode", "release", "server mode (debug/release/test)")
}

// bindServerFlags 在命令执行前绑定，root 和 serve 共用同一组 viper key
func bindServerFlags(c *cobra.Command, _ []string) {
	viper.BindPFlag("server.host", c.Flags().Lookup("host"))
	viper.BindPFlag("server.port", c.Flags().Lookup("port"))
	viper.BindPFlag("server.mode", c.Flags().Lookup("mode"))
}

func initConfig() {
	// .env 只补充未设置的环境变量
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", envFile, err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./data")
		viper.AddConfigPath("$HOME/.genbridge")
	}

	config.BindEnv(viper.GetViper())

	if configErr = readConfigFile(viper.GetViper(), cfgFile != ""); configErr != nil {
		return
	}

	if viper.ConfigFileUsed() == "" {
		// 没有配置文件时使用内置默认值，config --write 会写到这里
		viper.SetConfigFile("./config.yaml")
		return
	}
	fmt.Println("Using config file:", viper.ConfigFileUsed())
}

// readConfigFile reads the config file. A missing file found by search is not an error;
// a missing explicit --config file or an unparsable one is.
func readConfigFile(v *viper.Viper, explicit bool) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !explicit && errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("failed to read config file: %w", err)
}
