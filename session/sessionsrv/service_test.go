package sessionsrv

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaahana-ai/vaahana/session"
)

func newService(t *testing.T) (*SessionService, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	return NewSessionService(store), store
}

func TestCreateStartsInGreeting(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	rec, err := svc.Create(ctx, "user-1", session.LanguageMalayalam)
	require.NoError(t, err)
	assert.Equal(t, session.StateGreeting, rec.State)
	assert.Equal(t, session.LanguageMalayalam, rec.Language)

	got, err := svc.Get(ctx, rec.SessionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.SessionID, got.SessionID)
}

func TestSettersPersistFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	rec, err := svc.Create(ctx, "", session.LanguageEnglish)
	require.NoError(t, err)

	pickup := &session.Location{Address: "Marina Beach, Chennai", Coordinates: session.Coordinates{Lat: 13.05, Lng: 80.28}}
	drop := &session.Location{Address: "Chennai Central", Coordinates: session.Coordinates{Lat: 13.08, Lng: 80.27}}

	ok, err := svc.SetPickup(ctx, rec.SessionID, pickup)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = svc.SetDrop(ctx, rec.SessionID, drop)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = svc.SetPhoneNumber(ctx, rec.SessionID, "9876543210")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = svc.SetState(ctx, rec.SessionID, session.StateAskingPhone)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = svc.SetRideDetails(ctx, rec.SessionID, &session.RideDetails{RideID: 7, PhoneNumber: "9876543210"})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := svc.Get(ctx, rec.SessionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Marina Beach, Chennai", got.Pickup.Address)
	assert.Equal(t, "Chennai Central", got.Drop.Address)
	assert.Equal(t, "9876543210", got.PhoneNumber)
	assert.Equal(t, session.StateAskingPhone, got.State)
	assert.EqualValues(t, 7, got.RideDetails.RideID)
}

func TestUpdateRefreshesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	rec, err := svc.Create(ctx, "", session.LanguageEnglish)
	require.NoError(t, err)
	created := rec.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	ok, err := svc.SetState(ctx, rec.SessionID, session.StateAskingPickup)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := svc.Get(ctx, rec.SessionID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(created))
}

func TestUpdateMissingSessionReturnsFalse(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	ok, err := svc.SetState(ctx, "session_000000000000_0", session.StateAskingDrop)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.AppendTurn(ctx, "session_000000000000_0", "hi", "hello", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppendTurnKeepsBoundedHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	rec, err := svc.Create(ctx, "", session.LanguageEnglish)
	require.NoError(t, err)

	for i := 0; i < session.HistoryLimit+5; i++ {
		ok, err := svc.AppendTurn(ctx, rec.SessionID, fmt.Sprintf("msg %d", i), "ok", map[string]any{"detected_language": "en"})
		require.NoError(t, err)
		require.True(t, ok)
	}

	got, err := svc.Get(ctx, rec.SessionID)
	require.NoError(t, err)
	require.Len(t, got.History, session.HistoryLimit)
	assert.Equal(t, "msg 5", got.History[0].UserMessage)
	assert.Equal(t, "en", got.History[0].Metadata["detected_language"])
}

func TestDeleteAndExtend(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	rec, err := svc.Create(ctx, "", session.LanguageEnglish)
	require.NoError(t, err)

	ok, err := svc.Extend(ctx, rec.SessionID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Delete(ctx, rec.SessionID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := svc.Get(ctx, rec.SessionID)
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err = svc.Extend(ctx, rec.SessionID)
	require.NoError(t, err)
	assert.False(t, ok)
}
