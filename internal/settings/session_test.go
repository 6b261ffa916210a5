package settings

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

func TestStore_OpenGetClose(t *testing.T) {
	s := NewStore(0, nil)
	tr := NewTracker(Limits{})
	res := offer.Resource{DatabaseID: "db"}

	sess := s.Open(res, tr)
	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, tr, got.Tracker)
	assert.Equal(t, res, got.Resource)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Close(sess.ID))
	_, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, s.Close(sess.ID), ErrSessionNotFound)
	assert.ErrorIs(t, s.Close(uuid.New()), ErrSessionNotFound)
}

func TestStore_ExpiresIdleSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore(time.Minute, nil)
	s.now = func() time.Time { return now }

	idle := s.Open(offer.Resource{DatabaseID: "a"}, NewTracker(Limits{}))

	busyTracker := NewTracker(Limits{})
	busyTracker.SetBaseline(offer.NewManual("o", 400))
	busyTracker.SetManualThroughput(500)
	_, err := busyTracker.BeginCommit()
	require.NoError(t, err)
	busy := s.Open(offer.Resource{DatabaseID: "b"}, busyTracker)

	now = now.Add(2 * time.Minute)

	_, err = s.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Get(busy.ID)
	assert.NoError(t, err)
}
