package sessionsrv

import (
	"context"
	"time"

	"github.com/vaahana-ai/vaahana/pkg/logx"
	"github.com/vaahana-ai/vaahana/session"
)

// SessionService wraps a session.Store with the read-modify-write
// operations the conversation flow needs. Concurrent updates to the
// same session are last-write-wins, which is acceptable because a
// session belongs to a single caller.
type SessionService struct {
	store session.Store
}

// NewSessionService creates a service over the given store.
func NewSessionService(store session.Store) *SessionService {
	return &SessionService{store: store}
}

// Create starts a fresh session in the greeting state.
func (s *SessionService) Create(ctx context.Context, userID string, lang session.Language) (*session.Record, error) {
	rec := session.NewRecord(userID, lang)
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{
		"session_id": rec.SessionID,
		"user_id":    userID,
		"language":   rec.Language,
	}).Info("Session created")
	return rec, nil
}

// Get returns the session record, or (nil, nil) when it is missing or
// expired.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*session.Record, error) {
	return s.store.Get(ctx, sessionID)
}

// Update applies a mutation to the record and saves it back, refreshing
// updated_at. It returns false when the session does not exist.
func (s *SessionService) Update(ctx context.Context, sessionID string, apply func(*session.Record)) (bool, error) {
	rec, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	apply(rec)
	rec.UpdatedAt = time.Now().UTC()
	return s.store.Save(ctx, rec)
}

// SetState moves the session to a new conversation state.
func (s *SessionService) SetState(ctx context.Context, sessionID string, state session.State) (bool, error) {
	ok, err := s.Update(ctx, sessionID, func(rec *session.Record) {
		rec.State = state
	})
	if err == nil && ok {
		logx.WithFields(logx.Fields{
			"session_id": sessionID,
			"state":      state,
		}).Debug("Session state changed")
	}
	return ok, err
}

// SetPickup stores the resolved pickup location.
func (s *SessionService) SetPickup(ctx context.Context, sessionID string, loc *session.Location) (bool, error) {
	return s.Update(ctx, sessionID, func(rec *session.Record) {
		rec.Pickup = loc
	})
}

// SetDrop stores the resolved drop location.
func (s *SessionService) SetDrop(ctx context.Context, sessionID string, loc *session.Location) (bool, error) {
	return s.Update(ctx, sessionID, func(rec *session.Record) {
		rec.Drop = loc
	})
}

// SetPhoneNumber stores the caller's contact number.
func (s *SessionService) SetPhoneNumber(ctx context.Context, sessionID, phone string) (bool, error) {
	return s.Update(ctx, sessionID, func(rec *session.Record) {
		rec.PhoneNumber = phone
	})
}

// SetRideDetails stores the booking snapshot after a ride is created.
func (s *SessionService) SetRideDetails(ctx context.Context, sessionID string, details *session.RideDetails) (bool, error) {
	return s.Update(ctx, sessionID, func(rec *session.Record) {
		rec.RideDetails = details
	})
}

// AppendTurn records one exchange in the session history. The history
// is trimmed to session.HistoryLimit inside the same update.
func (s *SessionService) AppendTurn(ctx context.Context, sessionID, userMessage, botResponse string, metadata map[string]any) (bool, error) {
	return s.Update(ctx, sessionID, func(rec *session.Record) {
		rec.AppendTurn(session.TurnEntry{
			Timestamp:   time.Now().UTC(),
			UserMessage: userMessage,
			BotResponse: botResponse,
			Metadata:    metadata,
		})
	})
}

// Extend resets the session TTL to its full value.
func (s *SessionService) Extend(ctx context.Context, sessionID string) (bool, error) {
	return s.store.Extend(ctx, sessionID)
}

// Delete removes the session.
func (s *SessionService) Delete(ctx context.Context, sessionID string) (bool, error) {
	ok, err := s.store.Delete(ctx, sessionID)
	if err == nil && ok {
		logx.WithField("session_id", sessionID).Debug("Session deleted")
	}
	return ok, err
}

// ListByUser returns the user's live sessions, most recent first.
func (s *SessionService) ListByUser(ctx context.Context, userID string, limit int) ([]*session.Record, error) {
	return s.store.ListByUser(ctx, userID, limit)
}
