package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "be-hr-approvals", cfg.Service.Name)
	assert.Equal(t, 8086, cfg.Server.Port)
	assert.Equal(t, 9086, cfg.Server.GRPCPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "hr_approvals", cfg.Database.Database)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "notifications.hr", cfg.NATS.SubjectPrefix)
	assert.False(t, cfg.Approval.AllowUnverifiedApprover)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HR_APPROVALS_SERVER_PORT", "9999")
	t.Setenv("HR_APPROVALS_DATABASE_HOST", "db.internal")
	t.Setenv("HR_APPROVALS_APPROVAL_ALLOW_UNVERIFIED_APPROVER", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, cfg.Approval.AllowUnverifiedApprover)
}
