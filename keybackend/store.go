package keybackend

import (
	"crypto/sha256"
	"encoding/hex"
)

// UsersConfig holds configuration for loading users.
type UsersConfig struct {
	Inline []User `mapstructure:"inline"` // Inline users from config
	File   string `mapstructure:"file"`   // Path to JSON file containing users
}

// NewUserStore creates a MapUserStore from the given configuration.
// It loads users from both inline config and file (if specified),
// merging them into a single store. File users take precedence over inline users
// if there are duplicates.
func NewUserStore(cfg UsersConfig) (*MapUserStore, error) {
	users := make(map[string]string)

	for _, u := range cfg.Inline {
		if u.Username != "" && u.Password != "" {
			users[u.Username] = u.Password
		}
	}

	if cfg.File != "" {
		fileUsers, err := LoadUsersFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for k, v := range fileUsers {
			users[k] = v
		}
	}

	return NewMapUserStore(users), nil
}

// OwnerID returns the owner id of a user: the hex SHA-256 of the username.
func OwnerID(username string) string {
	sum := sha256.Sum256([]byte(username))
	return hex.EncodeToString(sum[:])
}
