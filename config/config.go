package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Name string `yaml:"name"`
	Port uint16 `yaml:"port"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

// Duration accepts the usual "30m" / "1h" notation in yaml.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var text string
	if err := value.Decode(&text); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %v", text, err)
	}
	*d = Duration(parsed)
	return nil
}

type AuthConfig struct {
	TokenSecret string   `yaml:"tokenSecret"`
	TokenTTL    Duration `yaml:"tokenTTL"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Web    WebConfig    `yaml:"web"`
	DB     DBConfig     `yaml:"db"`
	Auth   AuthConfig   `yaml:"auth"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Name: "Minesweeper server", Port: 8000},
		Web:    WebConfig{Addr: ":8080"},
		DB:     DBConfig{Path: "minesweeper.db"},
		Auth:   AuthConfig{TokenTTL: Duration(time.Hour)},
	}
}

// Load reads a yaml config file over the defaults. A missing file is not
// an error so the server can start with nothing but defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}
	return cfg, nil
}
