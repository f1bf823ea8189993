package config

// Auth configures bearer-token authentication of admin routes. Tokens are
// HS256 JWTs carrying a "scope" claim.
type Auth struct {
	HMACSecret    string `toml:"HMACSecret"`
	HMACSecretEnv string `toml:"HMACSecretEnv"`
	Issuer        string `toml:"Issuer"`
	Audience      string `toml:"Audience"`
}

// HTTPRateLimit bounds requests per client at the HTTP edge. It is separate
// from the per-business submission limiter.
type HTTPRateLimit struct {
	RequestsPerMinute int `toml:"RequestsPerMinute"`
	Burst             int `toml:"Burst"`
}

// Telemetry controls the OTLP exporters.
type Telemetry struct {
	Endpoint string            `toml:"Endpoint"`
	Insecure bool              `toml:"Insecure"`
	Metrics  bool              `toml:"Metrics"`
	Traces   bool              `toml:"Traces"`
	Headers  map[string]string `toml:"Headers"`
}

// Indexer selects the relational audit index. An empty driver disables it.
type Indexer struct {
	Driver string `toml:"Driver"`
	DSN    string `toml:"DSN"`
}

// Logging mirrors observability/logging.Options.
type Logging struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}
