package keybackend

// CredentialsConfig holds configuration for loading basic auth credentials.
type CredentialsConfig struct {
	Inline []Credential `mapstructure:"inline" yaml:"inline"` // Inline credentials from config
	File   string       `mapstructure:"file" yaml:"file"`     // Path to JSON file containing credentials
}

// NewCredentialStore creates a CredentialStore from the given configuration.
// It loads credentials from both inline config and file (if specified),
// merging them into a single store. File entries take precedence over inline
// entries if there are duplicates.
func NewCredentialStore(cfg CredentialsConfig) (*MapCredentialStore, error) {
	users := make(map[string]string)

	for _, c := range cfg.Inline {
		if c.Username != "" && c.Password != "" {
			users[c.Username] = c.Password
		}
	}

	if cfg.File != "" {
		fileUsers, err := LoadCredentialsFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for k, v := range fileUsers {
			users[k] = v
		}
	}

	return NewMapCredentialStore(users), nil
}
