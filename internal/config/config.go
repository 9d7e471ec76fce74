package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. CROPREC_MODEL_PATH.
const EnvPrefix = "CROPREC"

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Model  ModelConfig  `mapstructure:"model"`
	ONNX   ONNXConfig   `mapstructure:"onnx"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Port, when set (also via the PORT variable), overrides Addr with ":<port>".
	Port            string        `mapstructure:"port"`
	CORS            bool          `mapstructure:"cors"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ModelConfig struct {
	Path  string `mapstructure:"path"`
	Codec string `mapstructure:"codec"`
}

type ONNXConfig struct {
	// Library is the onnxruntime shared library; empty uses the runtime default.
	Library string `mapstructure:"library"`
}

type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
	Color   bool `mapstructure:"color"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.port", "")
	v.SetDefault("server.cors", true)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("model.path", "models/model.onnx")
	v.SetDefault("model.codec", "models/label_codec.json")
	v.SetDefault("onnx.library", "")
	v.SetDefault("log.verbose", false)
	v.SetDefault("log.color", true)
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load resolves the configuration from defaults, an optional config file and
// the environment. An explicit cfgFile must exist; the default search
// (./croprec.yaml, ./config/croprec.yaml) is optional.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("croprec")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		err := v.ReadInConfig()
		notFound := viper.ConfigFileNotFoundError{}
		if err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Server.Port != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(cfg.Server.Port, ":")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Model.Path == "" {
		errs = append(errs, errors.New("model.path is required"))
	}
	if c.Model.Codec == "" {
		errs = append(errs, errors.New("model.codec is required"))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}
	return errors.Join(errs...)
}
