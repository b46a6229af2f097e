package config

import (
	"fmt"
	"maps"
	"os"

	"hlsgate/models"

	"gopkg.in/yaml.v3"
)

var (
	originConfigs = make(map[string]*models.OriginConfig)
	staticKeys    = make(map[string]string)
)

// LoadFile reads the optional YAML config. A missing file is not an error.
func LoadFile(configPath string) error {
	originConfigs = make(map[string]*models.OriginConfig)
	staticKeys = make(map[string]string)

	_, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed reading config file: %w", err)
	}
	fileConfig, err := ParseFile(data)
	if err != nil {
		return err
	}
	maps.Copy(originConfigs, fileConfig.Origins)
	maps.Copy(staticKeys, fileConfig.StaticKeys)
	return nil
}

func ParseFile(data []byte) (*models.FileConfig, error) {
	var fileConfig models.FileConfig
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("failed parsing config file: %w", err)
	}
	for host, cfg := range fileConfig.Origins {
		if cfg == nil {
			fileConfig.Origins[host] = &models.OriginConfig{}
		}
	}
	return &fileConfig, nil
}

func GetOriginConfigs() map[string]*models.OriginConfig {
	return maps.Clone(originConfigs)
}

func GetStaticKeys() map[string]string {
	return maps.Clone(staticKeys)
}
