package config

// ServerConfig defines the HTTP listener of the serve command.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	// Token protects the /api endpoints when set.
	Token string `json:"token" yaml:"token"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
