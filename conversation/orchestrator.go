package conversation

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vaahana-ai/vaahana/pkg/logx"
	"github.com/vaahana-ai/vaahana/session"
	"github.com/vaahana-ai/vaahana/session/sessionsrv"
)

// MaxMessageLength caps a chat message, counted in runes.
const MaxMessageLength = 1000

// Orchestrator drives booking conversations. A turn resolves the
// session, pivots the user's text through English, advances the
// conversation state machine and persists the exchange. The state
// handlers only ever see English text; replies are localized on the
// way out.
type Orchestrator struct {
	sessions    *sessionsrv.SessionService
	translator  Translator
	transcriber Transcriber
	synthesizer Synthesizer
	locations   LocationResolver
	rides       RideProvider
	audio       AudioStore
	defaultLang session.Language
}

// Config wires the orchestrator's dependencies. Transcriber,
// Synthesizer and Audio may be nil on a text-only deployment; the
// other fields are required.
type Config struct {
	Sessions        *sessionsrv.SessionService
	Translator      Translator
	Transcriber     Transcriber
	Synthesizer     Synthesizer
	Locations       LocationResolver
	Rides           RideProvider
	Audio           AudioStore
	DefaultLanguage session.Language
}

// NewOrchestrator creates an orchestrator from the given configuration.
func NewOrchestrator(cfg Config) *Orchestrator {
	def := cfg.DefaultLanguage
	if !def.Valid() {
		def = session.DefaultLanguage
	}
	return &Orchestrator{
		sessions:    cfg.Sessions,
		translator:  cfg.Translator,
		transcriber: cfg.Transcriber,
		synthesizer: cfg.Synthesizer,
		locations:   cfg.Locations,
		rides:       cfg.Rides,
		audio:       cfg.Audio,
		defaultLang: def,
	}
}

// ============================================================================
// Turn pipelines
// ============================================================================

// ProcessChat handles one text turn.
func (o *Orchestrator) ProcessChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	// 1. Validate the request
	if err := validateMessage(req.Message); err != nil {
		return nil, err
	}

	// 2. Resolve or create the session
	rec, err := o.resolveSession(ctx, req.SessionID, req.UserID, req.Language)
	if err != nil {
		return nil, err
	}

	// 3. Detect the user's language
	detected := o.translator.Detect(ctx, req.Message)

	// 4. Pivot to English for the state handlers
	pivot := o.toEnglish(ctx, req.Message, detected)

	logx.WithFields(logx.Fields{
		"session_id": rec.SessionID,
		"state":      rec.State,
		"language":   detected,
	}).Debug("Processing chat turn")

	// 5. Advance the conversation state machine
	reply := o.dispatch(ctx, pivot, rec)

	// 6. Localize the reply
	localized := o.fromEnglish(ctx, reply, detected)

	// 7. Persist the turn, unless the caller has gone away
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.recordTurn(ctx, rec.SessionID, req.Message, localized, detected); err != nil {
		return nil, err
	}

	return &ChatResponse{
		Response:          localized,
		SessionID:         rec.SessionID,
		DetectedLanguage:  detected,
		ConversationState: rec.State,
		RideDetails:       rec.RideDetails,
		NextAction:        nextActionFor(rec.State),
	}, nil
}

// ProcessVoice handles one spoken turn. The audio is transcribed before
// the session is touched, so an unreadable recording never burns a
// fresh session.
func (o *Orchestrator) ProcessVoice(ctx context.Context, req VoiceRequest) (*VoiceResponse, error) {
	if o.transcriber == nil {
		return nil, ErrVoiceNotConfigured()
	}

	// 1. Transcribe the audio
	tr, err := o.transcriber.Transcribe(ctx, req.Audio, req.Filename)
	if err != nil {
		return nil, err
	}
	detected := tr.Language
	logx.WithFields(logx.Fields{
		"language": detected,
		"chars":    len(tr.Text),
	}).Debug("Audio transcribed")

	// 2. Resolve or create the session
	rec, err := o.resolveSession(ctx, req.SessionID, req.UserID, "")
	if err != nil {
		return nil, err
	}

	// 3. Pivot, advance and localize exactly like a text turn
	pivot := o.toEnglish(ctx, tr.Text, detected)
	reply := o.dispatch(ctx, pivot, rec)
	localized := o.fromEnglish(ctx, reply, detected)

	// 4. Synthesize the spoken reply; a missing voice is not fatal
	audioURL := o.synthesizeReply(ctx, localized, detected)

	// 5. Persist the turn with the transcript as the user message
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.recordTurn(ctx, rec.SessionID, tr.Text, localized, detected); err != nil {
		return nil, err
	}

	return &VoiceResponse{
		TextResponse:      localized,
		AudioURL:          audioURL,
		SessionID:         rec.SessionID,
		DetectedLanguage:  detected,
		OriginalText:      tr.Text,
		ConversationState: rec.State,
		RideDetails:       rec.RideDetails,
	}, nil
}

func validateMessage(message string) error {
	if isBlank(message) {
		return ErrEmptyMessage()
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return ErrMessageTooLong(MaxMessageLength)
	}
	return nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// resolveSession loads the named session or starts a new one. A stale
// session ID is not an error: the turn simply begins a fresh
// conversation and the response carries the new ID.
func (o *Orchestrator) resolveSession(ctx context.Context, sessionID, userID, langHint string) (*session.Record, error) {
	if sessionID != "" {
		rec, err := o.sessions.Get(ctx, sessionID)
		if err != nil {
			return nil, ErrSessionUnavailable(err)
		}
		if rec != nil {
			return rec, nil
		}
		logx.WithField("session_id", sessionID).Debug("Unknown or expired session, starting a new one")
	}
	lang := o.defaultLang
	if langHint != "" {
		lang = session.NormalizeLanguage(langHint)
	}
	rec, err := o.sessions.Create(ctx, userID, lang)
	if err != nil {
		return nil, ErrSessionUnavailable(err)
	}
	return rec, nil
}

// toEnglish translates user text into English for the state handlers.
// Translation trouble falls back to the original text so the turn
// still proceeds.
func (o *Orchestrator) toEnglish(ctx context.Context, text string, from session.Language) string {
	if from == session.LanguageEnglish {
		return text
	}
	translated, err := o.translator.Translate(ctx, text, from, session.LanguageEnglish)
	if err != nil {
		logx.WithError(err).WithField("from", from).Warn("Translation to English failed, using original text")
		return text
	}
	return translated
}

// fromEnglish localizes the reply into the user's language, falling
// back to the English reply when translation is unavailable.
func (o *Orchestrator) fromEnglish(ctx context.Context, text string, to session.Language) string {
	if to == session.LanguageEnglish {
		return text
	}
	translated, err := o.translator.Translate(ctx, text, session.LanguageEnglish, to)
	if err != nil {
		logx.WithError(err).WithField("to", to).Warn("Translation from English failed, replying in English")
		return text
	}
	return translated
}

// recordTurn appends the exchange to the history and resets the session
// TTL. The user message is stored as the user wrote (or spoke) it, the
// reply as it was sent.
func (o *Orchestrator) recordTurn(ctx context.Context, sessionID, userMessage, botResponse string, detected session.Language) error {
	metadata := map[string]any{"detected_language": string(detected)}
	ok, err := o.sessions.AppendTurn(ctx, sessionID, userMessage, botResponse, metadata)
	if err != nil {
		return ErrSessionUnavailable(err)
	}
	if !ok {
		logx.WithField("session_id", sessionID).Warn("Session expired while recording turn")
		return nil
	}
	if _, err := o.sessions.Extend(ctx, sessionID); err != nil {
		return ErrSessionUnavailable(err)
	}
	return nil
}

// synthesizeReply renders the localized reply to audio and stores it.
// Any failure degrades the turn to text-only.
func (o *Orchestrator) synthesizeReply(ctx context.Context, text string, lang session.Language) string {
	if o.synthesizer == nil || o.audio == nil {
		return ""
	}
	data, err := o.synthesizer.Synthesize(ctx, text, lang)
	if err != nil {
		logx.WithError(err).Warn("Speech synthesis failed, returning text-only response")
		return ""
	}
	name := uuid.New().String() + ".mp3"
	url, err := o.audio.Put(ctx, name, data)
	if err != nil {
		logx.WithError(err).Warn("Audio store write failed, returning text-only response")
		return ""
	}
	return url
}

// ============================================================================
// Session management
// ============================================================================

// GetSession returns the session record for API callers.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*session.Record, error) {
	rec, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionUnavailable(err)
	}
	if rec == nil {
		return nil, session.ErrNotFound(sessionID)
	}
	return rec, nil
}

// ExtendSession resets the session TTL to its full value.
func (o *Orchestrator) ExtendSession(ctx context.Context, sessionID string) error {
	ok, err := o.sessions.Extend(ctx, sessionID)
	if err != nil {
		return ErrSessionUnavailable(err)
	}
	if !ok {
		return session.ErrNotFound(sessionID)
	}
	return nil
}

// DeleteSession ends the session immediately.
func (o *Orchestrator) DeleteSession(ctx context.Context, sessionID string) error {
	ok, err := o.sessions.Delete(ctx, sessionID)
	if err != nil {
		return ErrSessionUnavailable(err)
	}
	if !ok {
		return session.ErrNotFound(sessionID)
	}
	return nil
}

// ListUserSessions returns the user's live sessions, most recent first.
func (o *Orchestrator) ListUserSessions(ctx context.Context, userID string, limit int) ([]*session.Record, error) {
	recs, err := o.sessions.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, ErrSessionUnavailable(err)
	}
	return recs, nil
}

// ============================================================================
// Direct ride operations
// ============================================================================

// CancelRideByID cancels a ride outside any conversation.
func (o *Orchestrator) CancelRideByID(ctx context.Context, rideID int64) error {
	return o.rides.CancelRide(ctx, rideID)
}

// RideStatusByID fetches the live status of a ride.
func (o *Orchestrator) RideStatusByID(ctx context.Context, rideID int64) (*session.RideStatusInfo, error) {
	return o.rides.RideStatus(ctx, rideID)
}

// Health checks that required dependencies are wired and the session
// store answers.
func (o *Orchestrator) Health(ctx context.Context) error {
	if o.sessions == nil || o.translator == nil || o.locations == nil || o.rides == nil {
		return fmt.Errorf("orchestrator is missing required dependencies")
	}
	if _, err := o.sessions.Get(ctx, session.IDPrefix+"healthcheck_0"); err != nil {
		return ErrSessionUnavailable(err)
	}
	return nil
}
