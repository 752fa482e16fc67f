package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig 启动参数
// 来源优先级：环境变量 CRASHTHATCAR_* > crashthatcar.yaml > 默认值
type AppConfig struct {
	LogLevel       string `mapstructure:"logLevel"`
	RaceConfigPath string `mapstructure:"raceConfigPath"` // 为空时使用内置配置
	DataAppName    string `mapstructure:"dataAppName"`    // gdata 存储目录名
	Seed           int64  `mapstructure:"seed"`           // 0 表示按时间随机
	Window         struct {
		Width  int    `mapstructure:"width"`
		Height int    `mapstructure:"height"`
		Title  string `mapstructure:"title"`
	} `mapstructure:"window"`
}

// LoadAppConfig 从 configDir 读取 crashthatcar.yaml（可选）并合并环境变量
func LoadAppConfig(configDir string) (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("logLevel", "info")
	v.SetDefault("raceConfigPath", "")
	v.SetDefault("dataAppName", "crashthatcar")
	v.SetDefault("seed", 0)
	v.SetDefault("window.width", GameWindowWidth)
	v.SetDefault("window.height", GameWindowHeight)
	v.SetDefault("window.title", "Crash That Car")

	v.SetConfigName("crashthatcar")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}

	v.SetEnvPrefix("CRASHTHATCAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	return &cfg, nil
}
