package keybackend

import (
	"encoding/json"
	"fmt"
	"os"
)

// User is a username and its secret. The secret is either a bcrypt hash
// (starting with "$2") or a plain password.
type User struct {
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
}

// LoadUsersFromFile loads users from a JSON file.
// The file should contain an array of users:
//
//	[
//	  {"username": "user1@email.com", "password": "$2a$10$..."},
//	  {"username": "user2@email.com", "password": "password2"}
//	]
//
// Returns a map of username to secret.
func LoadUsersFromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}

	result := make(map[string]string, len(users))
	for _, u := range users {
		if u.Username != "" && u.Password != "" {
			result[u.Username] = u.Password
		}
	}

	return result, nil
}
