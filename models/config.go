package models

// CommandsConfig represents the "commands" section of config.yaml.
type CommandsConfig struct {
	Auth AuthConfig `json:"auth" mapstructure:"auth"`
}

// AuthConfig lists the principals for each permission level.
type AuthConfig struct {
	Developers  []string `json:"developers" mapstructure:"developers"`    // User IDs with full access
	AdminsRoles []string `json:"admins_roles" mapstructure:"adminsRoles"` // Role IDs allowed to manage boards
	Guest       []string `json:"guest" mapstructure:"guest"`              // User IDs; "0" or an empty list means everyone
}
