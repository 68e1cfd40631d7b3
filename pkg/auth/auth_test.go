package auth

import (
	"testing"

	"github.com/arnavshah/shift-picker-go/internal/testutils"
	"github.com/arnavshah/shift-picker-go/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestToken_RoundTrip(t *testing.T) {
	a := New("jwt-secret", "master", "")

	token, err := a.CreateToken("admin")
	require.NoError(t, err)

	claims, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	other := New("different", "master", "")
	_, err = other.VerifyToken(token)
	assert.Error(t, err)
}

func TestHMACKey(t *testing.T) {
	a := New("jwt", "master", "")
	key := a.GenerateHMACKey("acme")

	userID, err := a.VerifyHMACKey(key)
	require.NoError(t, err)
	assert.Equal(t, "acme", userID)

	_, err = a.VerifyHMACKey("acme.deadbeef")
	assert.Error(t, err)

	_, err = a.VerifyHMACKey("no-dot")
	assert.Error(t, err)
}

func TestStaffToken(t *testing.T) {
	disabled := New("jwt", "master", "")
	assert.False(t, disabled.StaffTokensEnabled())

	a := New("jwt", "master", "signing")
	assert.True(t, a.StaffTokensEnabled())

	token := a.StaffToken("picker-1", "alice")
	assert.True(t, a.VerifyStaffToken("picker-1", "alice", token))
	assert.False(t, a.VerifyStaffToken("picker-1", "bob", token))
	assert.False(t, a.VerifyStaffToken("picker-2", "alice", token))
}

func TestEnsureAdminExists(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	db := testutils.NewDB(t)

	require.NoError(t, EnsureAdminExists(db, "root", "pw", zap.NewNop()))
	require.NoError(t, EnsureAdminExists(db, "other", "pw2", zap.NewNop()))

	var users []database.MasterUser
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "root", users[0].Username)
	assert.True(t, CheckPasswordHash("pw", users[0].PasswordHash))
	assert.False(t, CheckPasswordHash("pw2", users[0].PasswordHash))
}
