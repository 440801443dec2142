package config

import "fmt"

// VectorStoreProvider identifies the vector database type.
type VectorStoreProvider string

const (
	VectorStoreQdrant  VectorStoreProvider = "qdrant"
	VectorStoreChromem VectorStoreProvider = "chromem"
)

// VectorStoreConfig configures the vector database.
type VectorStoreConfig struct {
	// Provider type (qdrant, chromem).
	Provider VectorStoreProvider `yaml:"provider,omitempty" json:"provider,omitempty"`

	// Host of the qdrant server.
	Host string `yaml:"host,omitempty" json:"host,omitempty"`

	// Port of the qdrant gRPC endpoint.
	Port int `yaml:"port,omitempty" json:"port,omitempty"`

	// APIKey for qdrant cloud.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// UseTLS enables TLS for the qdrant connection.
	UseTLS bool `yaml:"use_tls,omitempty" json:"use_tls,omitempty"`

	// Path is the on-disk location for the embedded chromem store.
	// Empty means in-memory.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// Collection holding the math knowledge documents.
	Collection string `yaml:"collection,omitempty" json:"collection,omitempty"`
}

// SetDefaults applies default values.
func (c *VectorStoreConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = VectorStoreChromem
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Collection == "" {
		c.Collection = "math_knowledge"
	}
}

// Validate checks the vector store configuration.
func (c *VectorStoreConfig) Validate() error {
	switch c.Provider {
	case VectorStoreQdrant, VectorStoreChromem:
	default:
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	if c.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if c.Provider == VectorStoreQdrant && c.Host == "" {
		return fmt.Errorf("host is required for qdrant")
	}
	return nil
}
