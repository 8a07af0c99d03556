package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"reelforge/internal/config"
	"reelforge/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "reelforge",
	Short: "Reelforge - phrase synchronization & segmentation engine",
	Long: `Reelforge aligns planned script phrases to spoken subtitle timestamps and
splits long phrases into bounded visual segments with adapted video prompts.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace/debug/info/warn/error/fatal)")
	rootCmd.PersistentFlags().String("storage-path", "", "local production directory (overrides storage.local.base_path)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("storage.local.base_path", rootCmd.PersistentFlags().Lookup("storage-path"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.reelforge")
	}

	// 环境变量设置
	viper.SetEnvPrefix("REELFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	loaded, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

// loadConfig 从 viper 反序列化配置
func loadConfig() (*config.Config, error) {
	c := &config.Config{}
	if err := viper.Unmarshal(c); err != nil {
		return nil, err
	}
	return c, nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "10m")

	// AI
	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("ai.options.temperature", 0.7)
	viper.SetDefault("ai.options.max_tokens", 2000)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "auto")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// Sync
	viper.SetDefault("sync.method", "hybrid")
	viper.SetDefault("sync.similarity_threshold", 0.6)

	// Segmentation
	viper.SetDefault("segmentation.max_segment_duration", 3.0)
	viper.SetDefault("segmentation.min_segment_duration", 2.0)
	viper.SetDefault("segmentation.prefer_equal_segments", true)
	viper.SetDefault("segmentation.minimum_duration_to_segment", 4.0)
	viper.SetDefault("segmentation.concurrency", 4)
	viper.SetDefault("segmentation.cache_ttl", "168h")

	// Storage
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local.base_path", "./VideoProduction")

	// MongoDB（uri 为空时不记录运行历史）
	viper.SetDefault("mongo.database", "reelforge")
	viper.SetDefault("mongo.max_pool_size", 20)
	viper.SetDefault("mongo.min_pool_size", 2)

	// NATS
	viper.SetDefault("nats.subject_prefix", "reelforge")
	viper.SetDefault("nats.connect_timeout", "5s")

	// Auth
	viper.SetDefault("auth.token_expiry", "720h")
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
