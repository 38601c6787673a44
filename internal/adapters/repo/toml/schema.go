package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Profiles []profileSchema `toml:"profiles"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported profiles schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type profileSchema struct {
	ID          string            `toml:"id"`
	Name        string            `toml:"name,omitempty"`
	BaseURL     string            `toml:"base_url"`
	DataSource  string            `toml:"data_source,omitempty"`
	Username    string            `toml:"username,omitempty"`
	Credentials credentialsSchema `toml:"credentials,omitempty"`
}

type credentialsSchema struct {
	PasswordRef string `toml:"password_ref,omitempty"`
	TokenRef    string `toml:"token_ref,omitempty"`
}
