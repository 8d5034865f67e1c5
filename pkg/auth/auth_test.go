package authentication

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAdmin(t *testing.T) {
	svc := NewBasicAuthService(&BasicAuthTConfig{AdminUsername: "admin", AdminPassword: "s3cret"})

	assert.True(t, svc.ValidateAdmin("admin", "s3cret"))
	assert.False(t, svc.ValidateAdmin("admin", "wrong"))
	assert.False(t, svc.ValidateAdmin("root", "s3cret"))
}

func TestValidateAdminWithoutPassword(t *testing.T) {
	svc := NewBasicAuthService(&BasicAuthTConfig{AdminUsername: "admin"})
	assert.False(t, svc.ValidateAdmin("admin", ""))
}

func TestDecodeFromHeader(t *testing.T) {
	svc := NewBasicAuthService(nil)
	header := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:pa:ss"))

	user, pass := svc.DecodeFromHeader(header)
	assert.Equal(t, "admin", user)
	assert.Equal(t, "pa:ss", pass)

	user, pass = svc.DecodeFromHeader("Basic !!!")
	assert.Empty(t, user)
	assert.Empty(t, pass)
}
