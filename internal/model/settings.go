package model

// Default bot settings
const (
	DefaultPrefix = "!"
	DefaultDMRole = "Dungeon Master"
)

// Settings holds the mutable bot configuration changed through chat commands
type Settings struct {
	Prefix string `json:"prefix"`
	DMRole string `json:"dmRole"`
}

// DefaultSettings returns the settings used before any admin changes them
func DefaultSettings() Settings {
	return Settings{
		Prefix: DefaultPrefix,
		DMRole: DefaultDMRole,
	}
}

// WithDefaults fills empty fields from d
func (s Settings) WithDefaults(d Settings) Settings {
	if s.Prefix == "" {
		s.Prefix = d.Prefix
	}
	if s.DMRole == "" {
		s.DMRole = d.DMRole
	}
	return s
}
