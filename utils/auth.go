package utils

import (
	"dealboard-bot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// Auth provides methods for authorization checks.
type Auth struct {
	config models.CommandsConfig
}

// NewAuth creates a new Auth instance with the loaded configuration.
func NewAuth() (*Auth, error) {
	var commandsConfig models.CommandsConfig
	if err := viper.UnmarshalKey("commands", &commandsConfig); err != nil {
		return nil, err
	}
	return &Auth{config: commandsConfig}, nil
}

// IsDeveloper checks if a user is a developer.
func (a *Auth) IsDeveloper(userID string) bool {
	for _, devID := range a.config.Auth.Developers {
		if userID == devID {
			return true
		}
	}
	return false
}

// IsAdmin checks if a member carries one of the configured admin roles.
func (a *Auth) IsAdmin(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	for _, adminRoleID := range a.config.Auth.AdminsRoles {
		for _, userRoleID := range member.Roles {
			if userRoleID == adminRoleID {
				return true
			}
		}
	}
	return false
}

// IsGuest checks the guest allow-list. An empty list or the special id "0"
// leaves the level open to everyone, which is the shipped default.
func (a *Auth) IsGuest(userID string) bool {
	if len(a.config.Auth.Guest) == 0 {
		return true
	}
	for _, guestID := range a.config.Auth.Guest {
		if guestID == "0" {
			return true
		}
		if userID == guestID {
			return true
		}
	}
	return false
}

// CheckPermission checks if the interaction's user has the required level.
// Higher levels imply the lower ones, so an admin always passes guest.
func (a *Auth) CheckPermission(s *discordgo.Session, i *discordgo.InteractionCreate, requiredLevel string) bool {
	userID := InteractionUserID(i)

	switch requiredLevel {
	case "developer":
		return a.IsDeveloper(userID)
	case "admin":
		return a.IsDeveloper(userID) || a.IsAdmin(i.Member)
	case "guest":
		return a.IsDeveloper(userID) || a.IsAdmin(i.Member) || a.IsGuest(userID)
	default:
		return false
	}
}

// InteractionUserID returns the acting user's id for both guild and DM
// interactions.
func InteractionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
