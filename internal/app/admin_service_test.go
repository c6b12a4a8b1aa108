package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"troubadour_scheduler/internal/domain/audit"
	"troubadour_scheduler/internal/domain/digest"
	"troubadour_scheduler/internal/domain/retention"
)

const ownerID int64 = 4242

func newAdminFixture() (*AdminService, *fakeDigestRunner, *fakeChurnRunner, *fakeAudit, *ChurnMonitor) {
	logger, _ := newTestLogger()
	monitor := NewChurnMonitor(&fakeRetention{}, nil, nil, nil, retention.NewThreshold(40), time.Second, logger)
	digests := &fakeDigestRunner{result: &digest.RunResult{Sent: 2}}
	churn := &fakeChurnRunner{}
	auditLog := &fakeAudit{}
	return NewAdminService(digests, churn, monitor, auditLog, ownerID, logger), digests, churn, auditLog, monitor
}

func TestAdminService_RejectsNonOwner(t *testing.T) {
	svc, digests, churn, _, _ := newAdminFixture()

	_, err := svc.ForceDigest(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = svc.ForceChurnCheck(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = svc.SetThreshold(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = svc.Status(1)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)

	assert.Zero(t, digests.calls)
	assert.Zero(t, churn.calls)
}

func TestAdminService_ForceRuns(t *testing.T) {
	svc, digests, churn, _, _ := newAdminFixture()

	res, err := svc.ForceDigest(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, digests.calls)

	_, err = svc.ForceChurnCheck(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 1, churn.calls)
}

func TestAdminService_SetThresholdClampsAndAudits(t *testing.T) {
	svc, _, _, auditLog, monitor := newAdminFixture()

	applied, err := svc.SetThreshold(context.Background(), ownerID, 120)
	require.NoError(t, err)
	assert.Equal(t, 100.0, applied)
	assert.Equal(t, 100.0, monitor.Threshold())

	require.Len(t, auditLog.entries, 1)
	assert.Equal(t, audit.ActionThresholdChanged, auditLog.entries[0].action)
	assert.Equal(t, 40.0, auditLog.entries[0].details["previous"])

	got, err := svc.Threshold(ownerID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)
}

func TestAdminService_SetThresholdRefusedWhileCheckRuns(t *testing.T) {
	svc, _, churn, auditLog, monitor := newAdminFixture()
	churn.busy = true

	_, err := svc.SetThreshold(context.Background(), ownerID, 10)
	require.Error(t, err)
	assert.Equal(t, 40.0, monitor.Threshold())
	assert.Empty(t, auditLog.entries)
}

func TestAdminService_Status(t *testing.T) {
	svc, _, _, _, _ := newAdminFixture()

	statuses, err := svc.Status(ownerID)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "digest", statuses[0].Name)
	assert.Equal(t, "churn", statuses[1].Name)
}
