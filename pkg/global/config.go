package global

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort   string `json:"serverPort" yaml:"serverPort"`
	StackFile    string `json:"stackFile" yaml:"stackFile"`
	LogLevel     string `json:"logLevel" yaml:"logLevel"`
	LogFormat    string `json:"logFormat" yaml:"logFormat"`
	EnableMetric bool   `json:"enableMetric" yaml:"enableMetric"`
}

var (
	// 单例
	G_config *Config
)

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// DefaultConfig reads the console settings from the environment.
// An empty STACK_FILE selects the embedded stack definition.
func DefaultConfig() *Config {
	return &Config{
		ServerPort:   getEnv("SERVER_PORT", "18080"),
		StackFile:    getEnv("STACK_FILE", ""),
		LogLevel:     getEnv("LOGGING_LEVEL", "INFO"),
		LogFormat:    getEnv("LOGGING_FORMAT", "CONSOLE"),
		EnableMetric: getEnv("ENABLE_METRICS", "true") == "true",
	}
}

// InitConfig loads the environment defaults and overlays the YAML file at path, if any.
func InitConfig(path string) (err error) {
	var (
		conf  *Config = DefaultConfig()
		bytes []byte
	)
	if path != "" {
		if bytes, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err = yaml.Unmarshal(bytes, conf); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	G_config = conf
	return
}
