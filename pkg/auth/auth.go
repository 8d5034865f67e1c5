package authentication

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

type IBasicAuthService interface {
	ValidateAdmin(username, password string) bool
	DecodeFromHeader(auth string) (string, string)
}

type BasicAuthTConfig struct {
	AdminUsername string

	AdminPassword string
}

type basicAuth struct {
	adminUsername string
	adminPassword string
}

func NewBasicAuthService(config *BasicAuthTConfig) IBasicAuthService {
	if config == nil {
		config = &BasicAuthTConfig{}
	}
	return &basicAuth{
		adminUsername: config.AdminUsername,
		adminPassword: config.AdminPassword,
	}
}

func (b *basicAuth) DecodeFromHeader(auth string) (string, string) {
	encoded := strings.TrimPrefix(auth, "Basic ")

	// Decode the Base64 string
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ""
	}

	// Split the decoded string into username and password
	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}

	return parts[0], parts[1]
}

// ValidateAdmin rejects everything when no admin password is configured.
func (b *basicAuth) ValidateAdmin(username, password string) bool {
	if b.adminPassword == "" {
		return false
	}
	userOK := SecureCompare(b.adminUsername, username)
	passOK := SecureCompare(b.adminPassword, password)
	return userOK && passOK
}

// SecureCompare compares two secrets in constant time.
func SecureCompare(expected, given string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}
