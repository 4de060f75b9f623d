package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAnonymous, RoleAuthenticated, RoleMember, RoleAdmin} {
		assert.True(t, r.Valid(), "%s should be valid", r)
	}
	assert.False(t, Role("SUPERUSER").Valid())
	assert.False(t, Role("admin").Valid(), "roles are case sensitive")
	assert.False(t, Role("").Valid())
}

func TestAnonymousHasNoCapabilities(t *testing.T) {
	assert.Empty(t, GetDefaultCapabilities(RoleAnonymous))
}

func TestCapabilityMembership(t *testing.T) {
	// Self-service capabilities are shared by every verified role.
	for _, r := range []Role{RoleAuthenticated, RoleMember, RoleAdmin} {
		assert.True(t, RoleHasCapability(r, CapabilityProfileRead))
		assert.True(t, RoleHasCapability(r, CapabilityProfileWrite))
		assert.True(t, RoleHasCapability(r, CapabilityChangePassword))
	}

	// Management capabilities are admin-only.
	for _, capability := range []string{CapabilityUsersManage, CapabilityUsersUnlock, CapabilityStatusManage} {
		assert.True(t, RoleHasCapability(RoleAdmin, capability))
		assert.False(t, RoleHasCapability(RoleMember, capability))
		assert.False(t, RoleHasCapability(RoleAuthenticated, capability))
		assert.False(t, RoleHasCapability(RoleAnonymous, capability))
	}
}

func TestGetDefaultCapabilitiesReturnsCopy(t *testing.T) {
	caps := GetDefaultCapabilities(RoleAdmin)
	caps[0] = "tampered"
	assert.NotContains(t, GetDefaultCapabilities(RoleAdmin), "tampered")
}

func TestUnknownRoleHasNoCapabilities(t *testing.T) {
	assert.Empty(t, GetDefaultCapabilities(Role("SUPERUSER")))
	assert.False(t, RoleHasCapability(Role("SUPERUSER"), CapabilityUsersManage))
}
