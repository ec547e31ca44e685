package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xmflabs/xmf/internal/config"
	"github.com/xmflabs/xmf/internal/domain"
)

func TestUpdateThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := config.NewStore(dir)

	cred, err := s.Update(func(c *domain.Credential) {
		c.Account = "student-1"
	})
	require.NoError(t, err)
	require.Equal(t, "student-1", cred.Account)

	cred, err = s.Update(func(c *domain.Credential) {
		c.Cookie = domain.NormalizeHallticket("abc")
	})
	require.NoError(t, err)
	require.Equal(t, "hallticket=abc", cred.Cookie)
	require.Equal(t, "student-1", cred.Account, "update must not clobber unrelated fields")

	loaded, err := s.Load(config.Resolved{})
	require.NoError(t, err)
	require.Equal(t, "student-1", loaded.Account)
	require.Equal(t, "hallticket=abc", loaded.Cookie)

	require.FileExists(t, filepath.Join(dir, config.FileName))
}

func TestLoadPrecedenceFlagWins(t *testing.T) {
	dir := t.TempDir()
	s := config.NewStore(dir)

	_, err := s.Update(func(c *domain.Credential) { c.Account = "file-account" })
	require.NoError(t, err)

	t.Setenv("XMF_ACCOUNT", "env-account")

	loaded, err := s.Load(config.Resolved{FlagAccount: "flag-account"})
	require.NoError(t, err)
	require.Equal(t, "flag-account", loaded.Account)
}

func TestScenarioS6(t *testing.T) {
	dir := t.TempDir()
	s := config.NewStore(dir)

	_, err := s.Update(func(c *domain.Credential) {
		c.Cookie = domain.NormalizeHallticket("abc")
	})
	require.NoError(t, err)

	loaded, err := s.Load(config.Resolved{})
	require.NoError(t, err)
	require.Equal(t, "hallticket=abc", loaded.Cookie)
}
