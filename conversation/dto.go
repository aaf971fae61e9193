// conversation/dto.go
package conversation

import "github.com/vaahana-ai/vaahana/session"

// ChatRequest is one text turn from the user. SessionID is optional:
// when empty, or when it names a session that has expired, a fresh
// session is started and its ID returned in the response.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Language  string `json:"language,omitempty"`
}

// ChatResponse is the assistant's reply to a text turn.
type ChatResponse struct {
	Response          string               `json:"response"`
	SessionID         string               `json:"session_id"`
	DetectedLanguage  session.Language     `json:"detected_language"`
	ConversationState session.State        `json:"conversation_state"`
	RideDetails       *session.RideDetails `json:"ride_details,omitempty"`
	NextAction        string               `json:"next_action,omitempty"`
}

// VoiceRequest is one spoken turn from the user.
type VoiceRequest struct {
	Audio     []byte
	Filename  string
	SessionID string
	UserID    string
}

// VoiceResponse is the assistant's reply to a spoken turn. AudioURL is
// empty when synthesis was unavailable; the text reply always stands on
// its own.
type VoiceResponse struct {
	TextResponse      string               `json:"text_response"`
	AudioURL          string               `json:"audio_response_url,omitempty"`
	SessionID         string               `json:"session_id"`
	DetectedLanguage  session.Language     `json:"detected_language"`
	OriginalText      string               `json:"original_text"`
	ConversationState session.State        `json:"conversation_state"`
	RideDetails       *session.RideDetails `json:"ride_details,omitempty"`
}
