package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML writes c as a config file Load can read back. Credentials are
// left out; they belong in the environment.
func (c *AppConfig) WriteYAML(w io.Writer) error {
	out := *c
	out.Data.Alpaca.APIKey, out.Data.Alpaca.APISecret = "", ""
	out.Data.Bybit.APIKey, out.Data.Bybit.APISecret = "", ""
	out.Telegram.Token = ""

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
