package session

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HistoryLimit caps the number of conversation turns kept per session.
// Older turns are dropped first.
const HistoryLimit = 50

// IDPrefix starts every session identifier. Store implementations rely
// on it when scanning for session keys.
const IDPrefix = "session_"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a resolved place with a formatted address.
type Location struct {
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
	PlaceID     string      `json:"place_id,omitempty"`
	Name        string      `json:"name,omitempty"`
}

// TurnEntry is one user/assistant exchange in the session history. The
// user message is stored in the language the user wrote it in.
type TurnEntry struct {
	Timestamp   time.Time      `json:"timestamp"`
	UserMessage string         `json:"user_message"`
	BotResponse string         `json:"bot_response"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Record is the full persisted state of one conversation session.
type Record struct {
	SessionID   string       `json:"session_id"`
	UserID      string       `json:"user_id,omitempty"`
	State       State        `json:"state"`
	Language    Language     `json:"language"`
	Pickup      *Location    `json:"pickup_location,omitempty"`
	Drop        *Location    `json:"drop_location,omitempty"`
	PhoneNumber string       `json:"phone_number,omitempty"`
	RideDetails *RideDetails `json:"ride_details,omitempty"`
	History     []TurnEntry  `json:"conversation_history,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewSessionID builds an identifier of the form
// session_<12 hex chars>_<unix seconds>.
func NewSessionID() string {
	u := uuid.New()
	return fmt.Sprintf("%s%s_%d", IDPrefix, hex.EncodeToString(u[:])[:12], time.Now().Unix())
}

// NewRecord creates a fresh session record in the greeting state.
func NewRecord(userID string, lang Language) *Record {
	if !lang.Valid() {
		lang = DefaultLanguage
	}
	now := time.Now().UTC()
	return &Record{
		SessionID: NewSessionID(),
		UserID:    userID,
		State:     StateGreeting,
		Language:  lang,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendTurn records one exchange and trims the history to HistoryLimit.
func (r *Record) AppendTurn(entry TurnEntry) {
	r.History = append(r.History, entry)
	if n := len(r.History); n > HistoryLimit {
		trimmed := make([]TurnEntry, HistoryLimit)
		copy(trimmed, r.History[n-HistoryLimit:])
		r.History = trimmed
	}
}

// Clone returns a deep copy of the record. Store implementations hand
// out clones so callers cannot mutate shared state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Pickup != nil {
		p := *r.Pickup
		out.Pickup = &p
	}
	if r.Drop != nil {
		d := *r.Drop
		out.Drop = &d
	}
	out.RideDetails = r.RideDetails.Clone()
	if r.History != nil {
		out.History = make([]TurnEntry, len(r.History))
		copy(out.History, r.History)
		for i := range out.History {
			if m := r.History[i].Metadata; m != nil {
				mm := make(map[string]any, len(m))
				for k, v := range m {
					mm[k] = v
				}
				out.History[i].Metadata = mm
			}
		}
	}
	return &out
}
