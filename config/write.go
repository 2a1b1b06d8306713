package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Write stores the configuration as YAML, readable by Load. The file is only
// readable by its owner since it contains the secret key share.
func Write(path string, cfg *NodeConfig) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("could not create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	err = enc.Encode(cfg)
	if err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}
	return enc.Close()
}
