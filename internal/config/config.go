package config

// Config is the full daemon configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Plans     []PlanConfig    `mapstructure:"plans"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RuntimeConfig configures the container runtime gateway.
type RuntimeConfig struct {
	Binary         string `mapstructure:"binary"`
	Image          string `mapstructure:"image"`
	StoragePool    string `mapstructure:"storage_pool"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// AuthConfig configures token issuing.
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
}

// BootstrapConfig configures first-run seeding. The first account registered
// on an empty database is promoted to administrator with AdminCredits.
type BootstrapConfig struct {
	AdminCredits int `mapstructure:"admin_credits"`
}

// PlanConfig is one catalog tier as written in the config file. When the
// plans list is empty the built-in catalog applies.
type PlanConfig struct {
	Name      string         `mapstructure:"name"`
	MemoryMB  int            `mapstructure:"memory_mb"`
	CPUs      int            `mapstructure:"cpus"`
	StorageGB int            `mapstructure:"storage_gb"`
	Prices    map[string]int `mapstructure:"prices"`
}
