package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "catalog":
		return catalogTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `listen_addr = ":9999"
admin_addr = "127.0.0.1:9998"
read_timeout = "60s"
read_buffer = 4096
catalog = ""
cors_origins = ["http://localhost:3000"]
`

// catalogTemplate matches the built-in registry.
const catalogTemplate = `[[message]]
name = "door"
code = 0x0D

  [[message.field]]
  name = "door_id"
  width = 1

  [[message.field]]
  name = "command"
  width = 1

[[message]]
name = "lights"
code = 0x0E

  [[message.field]]
  name = "light_id"
  width = 1

  [[message.field]]
  name = "dimmer_value"
  width = 2
`
