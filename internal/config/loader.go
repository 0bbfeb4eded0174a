package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	configFile     = "config.yaml"
	defaultEnvFile = ".env"
	// configFileEnv, prefixed with the service name, points at another yaml file.
	configFileEnv = "CONFIG_FILE"
)

type Validator interface {
	Validate() error
}

// Load reads config.yaml, then .env, then the process environment into T.
// Environment keys use the upper-cased prefix <name>_ and map "_" to ".",
// so VENDING_SERVER_PORT overrides server.port.
// <NAME>_CONFIG_FILE replaces config.yaml with another file; it must exist.
func Load[T Validator](name string) (T, error) {
	var cfg T
	k := koanf.New(".")
	envPrefix := fmt.Sprintf("%s_", strings.ToUpper(name))

	// 1. Load configuration from yaml file
	path, explicit := configFilePath(envPrefix)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit {
			return cfg, fmt.Errorf("error loading config file %s: %w", path, err)
		}
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config file '%s': %v", path, err)
		}
	}

	// 2. Load environment variables from .env file
	envTransformer := keyTransformer(envPrefix)
	if envFileMap, err := godotenv.Read(defaultEnvFile); err == nil {
		envMap := make(map[string]any)
		for key, value := range envFileMap {
			if !strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				continue
			}
			envMap[envTransformer(key)] = value
		}
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	// 3. Load environment variables from the system, the highest priority
	if err := k.Load(env.Provider(envPrefix, ".", envTransformer), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	// 4. Unmarshal the configuration into the Config struct
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// 5. Validate the configuration
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func configFilePath(envPrefix string) (string, bool) {
	if path := os.Getenv(envPrefix + configFileEnv); path != "" {
		return path, true
	}
	return configFile, false
}

// keyTransformer maps VENDING_SERVER_PORT to server.port.
func keyTransformer(envPrefix string) func(string) string {
	prefix := strings.ToLower(envPrefix)
	return func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, prefix)
		return strings.ReplaceAll(key, "_", ".")
	}
}
