package config

import (
	"encoding/json"
	"os"

	"github.com/planhub/planhub/internal/flagx"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
type JsonConfig struct {
	ServerAddr  string `json:"server_addr"`
	DataDirName string `json:"data_dir_name"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no flag is present nothing
// is loaded. Unreadable or invalid files panic: a config file that was
// explicitly asked for must parse.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.ServerAddr != "" {
		config.ServerAddr = c.ServerAddr
	}
	if c.DataDirName != "" {
		config.DataDirName = c.DataDirName
	}
}
