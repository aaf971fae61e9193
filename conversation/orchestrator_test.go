package conversation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaahana-ai/vaahana/pkg/errx"
	"github.com/vaahana-ai/vaahana/session"
	"github.com/vaahana-ai/vaahana/session/sessionsrv"
)

type fixture struct {
	store       *session.MemoryStore
	svc         *sessionsrv.SessionService
	translator  *fakeTranslator
	resolver    *fakeResolver
	rides       *fakeRides
	transcriber *fakeTranscriber
	synth       *fakeSynthesizer
	audio       *fakeAudioStore
	orch        *Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		store:      session.NewMemoryStore(),
		translator: &fakeTranslator{},
		resolver: &fakeResolver{places: map[string]*session.Location{
			"anna nagar": {
				Address:     "Anna Nagar, Chennai, Tamil Nadu, India",
				Coordinates: session.Coordinates{Lat: 13.085, Lng: 80.21},
				PlaceID:     "pickup-place",
			},
			"airport": {
				Address:     "Chennai International Airport, Meenambakkam",
				Coordinates: session.Coordinates{Lat: 12.99, Lng: 80.169},
				PlaceID:     "drop-place",
			},
		}},
		rides:       &fakeRides{},
		transcriber: &fakeTranscriber{text: "hello", lang: session.LanguageEnglish},
		synth:       &fakeSynthesizer{},
		audio:       &fakeAudioStore{},
	}
	f.svc = sessionsrv.NewSessionService(f.store)
	f.orch = NewOrchestrator(Config{
		Sessions:        f.svc,
		Translator:      f.translator,
		Transcriber:     f.transcriber,
		Synthesizer:     f.synth,
		Locations:       f.resolver,
		Rides:           f.rides,
		Audio:           f.audio,
		DefaultLanguage: session.LanguageEnglish,
	})
	return f
}

func (f *fixture) chat(t *testing.T, sessionID, message string) *ChatResponse {
	t.Helper()
	resp, err := f.orch.ProcessChat(context.Background(), ChatRequest{Message: message, SessionID: sessionID})
	require.NoError(t, err)
	return resp
}

func (f *fixture) record(t *testing.T, sessionID string) *session.Record {
	t.Helper()
	rec, err := f.svc.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

// bookRide walks a fresh session through the whole flow to ride_created.
func (f *fixture) bookRide(t *testing.T) *ChatResponse {
	t.Helper()
	resp := f.chat(t, "", "hello")
	resp = f.chat(t, resp.SessionID, "anna nagar")
	resp = f.chat(t, resp.SessionID, "airport")
	resp = f.chat(t, resp.SessionID, "9876543210")
	require.Equal(t, session.StateRideCreated, resp.ConversationState)
	return resp
}

// ============================================================================
// Text turns
// ============================================================================

func TestGreetingTurnCreatesSessionAndAdvances(t *testing.T) {
	f := newFixture()

	resp := f.chat(t, "", "hello")

	assert.Equal(t, respWelcome, resp.Response)
	assert.True(t, strings.HasPrefix(resp.SessionID, session.IDPrefix))
	assert.Equal(t, session.StateAskingPickup, resp.ConversationState)
	assert.Equal(t, "provide_pickup_location", resp.NextAction)
	assert.Equal(t, session.LanguageEnglish, resp.DetectedLanguage)

	rec := f.record(t, resp.SessionID)
	assert.Equal(t, session.StateAskingPickup, rec.State)
	require.Len(t, rec.History, 1)
	assert.Equal(t, "hello", rec.History[0].UserMessage)
	assert.Equal(t, respWelcome, rec.History[0].BotResponse)
	assert.Equal(t, "en", rec.History[0].Metadata["detected_language"])
}

func TestFullBookingFlow(t *testing.T) {
	f := newFixture()

	resp := f.chat(t, "", "hi there")
	sid := resp.SessionID

	resp = f.chat(t, sid, "anna nagar")
	assert.Equal(t, fmt.Sprintf(respPickupSet, "Anna Nagar, Chennai, Tamil Nadu, India"), resp.Response)
	assert.Equal(t, session.StateAskingDrop, resp.ConversationState)
	assert.Equal(t, "provide_drop_location", resp.NextAction)

	resp = f.chat(t, sid, "airport")
	assert.Equal(t, fmt.Sprintf(respDropSet, "Chennai International Airport, Meenambakkam"), resp.Response)
	assert.Equal(t, session.StateAskingPhone, resp.ConversationState)
	assert.Equal(t, "provide_phone_number", resp.NextAction)

	resp = f.chat(t, sid, "98765 43210")
	assert.Equal(t, fmt.Sprintf(respRideCreated, int64(4521)), resp.Response)
	assert.Equal(t, session.StateRideCreated, resp.ConversationState)
	assert.Equal(t, "ride_management", resp.NextAction)

	require.NotNil(t, resp.RideDetails)
	assert.EqualValues(t, 4521, resp.RideDetails.RideID)
	assert.Equal(t, "Anna Nagar, Chennai, Tamil Nadu, India", resp.RideDetails.Pickup.Address)
	assert.Equal(t, "Chennai International Airport, Meenambakkam", resp.RideDetails.Drop.Address)
	assert.Equal(t, "9876543210", resp.RideDetails.PhoneNumber)

	require.Len(t, f.rides.created, 1)
	call := f.rides.created[0]
	assert.Equal(t, "9876543210", call.phone)
	assert.Equal(t, 13.085, call.pickup.Coordinates.Lat)
	assert.Equal(t, 80.169, call.drop.Coordinates.Lng)

	rec := f.record(t, sid)
	assert.Equal(t, session.StateRideCreated, rec.State)
	assert.Equal(t, "9876543210", rec.PhoneNumber)
	require.NotNil(t, rec.RideDetails)
	assert.Len(t, rec.History, 4)
}

func TestPickupNotFoundStaysInState(t *testing.T) {
	f := newFixture()
	resp := f.chat(t, "", "hello")

	resp = f.chat(t, resp.SessionID, "xyzzy nowhere")
	assert.Equal(t, respPickupNotFound, resp.Response)
	assert.Equal(t, session.StateAskingPickup, resp.ConversationState)

	rec := f.record(t, resp.SessionID)
	assert.Nil(t, rec.Pickup)
}

func TestPickupResolverFailureFallsBack(t *testing.T) {
	f := newFixture()
	resp := f.chat(t, "", "hello")

	f.resolver.err = errors.New("places quota exceeded")
	resp = f.chat(t, resp.SessionID, "anna nagar")

	assert.Equal(t, respPickupFallback, resp.Response)
	assert.Equal(t, session.StateAskingPickup, resp.ConversationState)
}

func TestDropNotFoundStaysInState(t *testing.T) {
	f := newFixture()
	resp := f.chat(t, "", "hello")
	resp = f.chat(t, resp.SessionID, "anna nagar")

	resp = f.chat(t, resp.SessionID, "xyzzy nowhere")
	assert.Equal(t, respDropNotFound, resp.Response)
	assert.Equal(t, session.StateAskingDrop, resp.ConversationState)
}

func TestShortPhoneNumberRejected(t *testing.T) {
	f := newFixture()
	resp := f.chat(t, "", "hello")
	resp = f.chat(t, resp.SessionID, "anna nagar")
	resp = f.chat(t, resp.SessionID, "airport")

	resp = f.chat(t, resp.SessionID, "12345")
	assert.Equal(t, respPhoneInvalid, resp.Response)
	assert.Equal(t, session.StateAskingPhone, resp.ConversationState)

	rec := f.record(t, resp.SessionID)
	assert.Empty(t, rec.PhoneNumber)
	assert.Empty(t, f.rides.created)
}

func TestBookingFailureKeepsPhoneAndState(t *testing.T) {
	f := newFixture()
	reg := errx.NewRegistry("RIDEAPI_TEST")
	code := reg.Register("API_TIMEOUT", errx.TypeExternal, http.StatusGatewayTimeout, "Ride booking API timeout")
	f.rides.createErr = reg.New(code)

	resp := f.chat(t, "", "hello")
	sid := resp.SessionID
	resp = f.chat(t, sid, "anna nagar")
	resp = f.chat(t, sid, "airport")
	resp = f.chat(t, sid, "9876543210")

	assert.Equal(t, fmt.Sprintf(respRideFailed, "Ride booking API timeout"), resp.Response)
	assert.Equal(t, session.StateAskingPhone, resp.ConversationState)
	assert.Nil(t, resp.RideDetails)

	rec := f.record(t, sid)
	assert.Equal(t, "9876543210", rec.PhoneNumber, "phone number stays persisted for the retry")
	assert.Nil(t, rec.RideDetails)

	// The retry goes straight to booking without re-asking anything.
	f.rides.createErr = nil
	resp = f.chat(t, sid, "9876543210")
	assert.Equal(t, session.StateRideCreated, resp.ConversationState)
}

func TestBookingWithoutLocationsReportsMissingInfo(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, "", session.LanguageEnglish)
	require.NoError(t, err)
	_, err = f.svc.SetState(ctx, rec.SessionID, session.StateAskingPhone)
	require.NoError(t, err)

	resp := f.chat(t, rec.SessionID, "9876543210")
	assert.Equal(t, fmt.Sprintf(respRideFailed, "Missing required booking information"), resp.Response)
	assert.Equal(t, session.StateAskingPhone, resp.ConversationState)
	assert.Empty(t, f.rides.created)
}

func TestConfirmingRideBehavesLikePhoneState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp := f.chat(t, "", "hello")
	sid := resp.SessionID
	resp = f.chat(t, sid, "anna nagar")
	resp = f.chat(t, sid, "airport")

	_, err := f.svc.SetState(ctx, sid, session.StateConfirmingRide)
	require.NoError(t, err)

	resp = f.chat(t, sid, "9876543210")
	assert.Equal(t, fmt.Sprintf(respRideCreated, int64(4521)), resp.Response)
	assert.Equal(t, session.StateRideCreated, resp.ConversationState)
}

// ============================================================================
// Post-ride turns
// ============================================================================

func TestPostRideStatusShowsDriver(t *testing.T) {
	f := newFixture()
	f.rides.status = &session.RideStatusInfo{
		RideID: 4521,
		Status: session.RideStatusDriverAssigned,
		Driver: &session.Driver{Name: "Raja", Phone: "3698521470", VehicleNumber: "TN 01 AB 1234"},
		ETA:    "5 minutes",
	}
	resp := f.bookRide(t)

	resp = f.chat(t, resp.SessionID, "what is the STATUS of my ride?")
	assert.Equal(t, fmt.Sprintf(respDriverInfo, "Raja", "3698521470"), resp.Response)
	assert.Equal(t, session.StateRideCreated, resp.ConversationState)
}

func TestPostRideStatusWithoutDriverUsesPlaceholders(t *testing.T) {
	f := newFixture()
	f.rides.status = &session.RideStatusInfo{RideID: 4521, Status: session.RideStatusPending}
	resp := f.bookRide(t)

	resp = f.chat(t, resp.SessionID, "driver details please")
	assert.Equal(t, fmt.Sprintf(respDriverInfo, driverNotAssigned, driverPhoneUnavailable), resp.Response)
}

func TestPostRideStatusProviderDown(t *testing.T) {
	f := newFixture()
	resp := f.bookRide(t)

	f.rides.statusErr = errors.New("dial tcp: connection refused")
	resp = f.chat(t, resp.SessionID, "status")

	assert.Equal(t, respStatusUnavailable, resp.Response)
	assert.Equal(t, session.StateRideCreated, resp.ConversationState, "a failed status check must not lose the ride")
}

func TestPostRideCancelResetsToGreeting(t *testing.T) {
	f := newFixture()
	resp := f.bookRide(t)

	resp = f.chat(t, resp.SessionID, "please cancel my ride")
	assert.Equal(t, respRideCancelled, resp.Response)
	assert.Equal(t, session.StateGreeting, resp.ConversationState)
	assert.Equal(t, []int64{4521}, f.rides.cancelled)
}

func TestPostRideCancelProviderDownStaysPut(t *testing.T) {
	f := newFixture()
	resp := f.bookRide(t)

	f.rides.cancelErr = errors.New("dial tcp: connection refused")
	resp = f.chat(t, resp.SessionID, "cancel")

	assert.Equal(t, respCancelFailed, resp.Response)
	assert.Equal(t, session.StateRideCreated, resp.ConversationState)
}

func TestPostRideNewStartsPickupCollection(t *testing.T) {
	f := newFixture()
	resp := f.bookRide(t)

	resp = f.chat(t, resp.SessionID, "book ANOTHER ride")
	assert.Equal(t, respNewRide, resp.Response)
	assert.Equal(t, session.StateAskingPickup, resp.ConversationState)
}

func TestPostRideUnknownInputShowsMenu(t *testing.T) {
	f := newFixture()
	resp := f.bookRide(t)

	resp = f.chat(t, resp.SessionID, "how is the weather")
	assert.Equal(t, respPostRideMenu, resp.Response)
	assert.Equal(t, session.StateRideCreated, resp.ConversationState)
}

func TestPostRideStatusWithoutRideFallsThroughToMenu(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, "", session.LanguageEnglish)
	require.NoError(t, err)
	_, err = f.svc.SetState(ctx, rec.SessionID, session.StateRideCreated)
	require.NoError(t, err)

	resp := f.chat(t, rec.SessionID, "status")
	assert.Equal(t, respPostRideMenu, resp.Response)

	resp = f.chat(t, rec.SessionID, "cancel")
	assert.Equal(t, respPostRideMenu, resp.Response)
	assert.Empty(t, f.rides.cancelled)
}

func TestCompletedSessionRestarts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, "", session.LanguageEnglish)
	require.NoError(t, err)
	_, err = f.svc.SetState(ctx, rec.SessionID, session.StateCompleted)
	require.NoError(t, err)

	resp := f.chat(t, rec.SessionID, "hello again")
	assert.Equal(t, respWelcome, resp.Response)
	assert.Equal(t, session.StateAskingPickup, resp.ConversationState)
}

// ============================================================================
// Language handling
// ============================================================================

func TestEnglishTurnSkipsTranslation(t *testing.T) {
	f := newFixture()
	f.chat(t, "", "hello")
	assert.Zero(t, f.translator.translateCalls)
}

func TestTamilTurnPivotsAndLocalizes(t *testing.T) {
	f := newFixture()
	f.translator.lang = session.LanguageTamil
	f.translator.toEnglish = map[string]string{"வணக்கம்": "hello"}

	resp := f.chat(t, "", "வணக்கம்")

	assert.Equal(t, "[ta] "+respWelcome, resp.Response)
	assert.Equal(t, session.LanguageTamil, resp.DetectedLanguage)

	rec := f.record(t, resp.SessionID)
	require.Len(t, rec.History, 1)
	assert.Equal(t, "வணக்கம்", rec.History[0].UserMessage, "history keeps the user's original words")
	assert.Equal(t, "[ta] "+respWelcome, rec.History[0].BotResponse)
	assert.Equal(t, "ta", rec.History[0].Metadata["detected_language"])
}

func TestTranslationFailureFallsBackToOriginalText(t *testing.T) {
	f := newFixture()
	f.translator.lang = session.LanguageMalayalam
	f.translator.err = errors.New("translate API unavailable")

	resp := f.chat(t, "", "നമസ്കാരം")

	// The turn still succeeds; the reply stays in English.
	assert.Equal(t, respWelcome, resp.Response)
	assert.Equal(t, session.LanguageMalayalam, resp.DetectedLanguage)
}

// ============================================================================
// Validation and failure modes
// ============================================================================

func TestEmptyMessageRejected(t *testing.T) {
	f := newFixture()

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := f.orch.ProcessChat(context.Background(), ChatRequest{Message: msg})
		var typed *errx.Error
		require.ErrorAs(t, err, &typed)
		assert.Equal(t, ErrCodeEmptyMessage, typed.Code)
		assert.Equal(t, http.StatusBadRequest, typed.HTTPStatus)
	}
}

func TestOverlongMessageRejected(t *testing.T) {
	f := newFixture()

	_, err := f.orch.ProcessChat(context.Background(), ChatRequest{
		Message: strings.Repeat("a", MaxMessageLength+1),
	})
	var typed *errx.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, ErrCodeMessageTooLong, typed.Code)

	// Exactly at the limit is fine.
	_, err = f.orch.ProcessChat(context.Background(), ChatRequest{
		Message: strings.Repeat("a", MaxMessageLength),
	})
	assert.NoError(t, err)
}

func TestStaleSessionIDStartsFreshSession(t *testing.T) {
	f := newFixture()

	resp := f.chat(t, "session_deadbeef0000_1700000000", "hello")
	assert.Equal(t, respWelcome, resp.Response)
	assert.NotEqual(t, "session_deadbeef0000_1700000000", resp.SessionID)
}

func TestStoreOutageFailsTurn(t *testing.T) {
	orch := NewOrchestrator(Config{
		Sessions:   sessionsrv.NewSessionService(failingStore{}),
		Translator: &fakeTranslator{},
		Locations:  &fakeResolver{},
		Rides:      &fakeRides{},
	})

	_, err := orch.ProcessChat(context.Background(), ChatRequest{Message: "hello"})
	var typed *errx.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, ErrCodeSessionUnavailable, typed.Code)
	assert.Equal(t, http.StatusBadGateway, typed.HTTPStatus)
}

func TestCancelledContextSkipsPersistence(t *testing.T) {
	f := newFixture()
	resp := f.chat(t, "", "hello")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.orch.ProcessChat(ctx, ChatRequest{Message: "anna nagar", SessionID: resp.SessionID})
	require.ErrorIs(t, err, context.Canceled)

	rec := f.record(t, resp.SessionID)
	assert.Len(t, rec.History, 1, "a cancelled turn must not append to the history")
}

// ============================================================================
// Voice turns
// ============================================================================

func TestVoiceTurnFullPipeline(t *testing.T) {
	f := newFixture()
	f.transcriber.text = "வணக்கம்"
	f.transcriber.lang = session.LanguageTamil
	f.translator.toEnglish = map[string]string{"வணக்கம்": "hello"}

	resp, err := f.orch.ProcessVoice(context.Background(), VoiceRequest{
		Audio:    []byte("fake-audio"),
		Filename: "turn.mp3",
	})
	require.NoError(t, err)

	assert.Equal(t, "[ta] "+respWelcome, resp.TextResponse)
	assert.Equal(t, "வணக்கம்", resp.OriginalText)
	assert.Equal(t, session.LanguageTamil, resp.DetectedLanguage)
	assert.Equal(t, session.StateAskingPickup, resp.ConversationState)
	assert.NotEmpty(t, resp.AudioURL)
	assert.True(t, strings.HasSuffix(resp.AudioURL, ".mp3"))

	// The spoken reply is the localized text in the user's language.
	require.Len(t, f.synth.calls, 1)
	assert.Equal(t, "[ta] "+respWelcome, f.synth.calls[0].text)
	assert.Equal(t, session.LanguageTamil, f.synth.calls[0].lang)

	rec := f.record(t, resp.SessionID)
	require.Len(t, rec.History, 1)
	assert.Equal(t, "வணக்கம்", rec.History[0].UserMessage, "history records the transcript")
}

func TestVoiceSynthesisFailureDegradesToText(t *testing.T) {
	f := newFixture()
	f.synth.err = errors.New("tts quota exceeded")

	resp, err := f.orch.ProcessVoice(context.Background(), VoiceRequest{
		Audio:    []byte("fake-audio"),
		Filename: "turn.wav",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.AudioURL)
	assert.Equal(t, respWelcome, resp.TextResponse)

	rec := f.record(t, resp.SessionID)
	assert.Len(t, rec.History, 1)
}

func TestVoiceTranscriptionFailureBurnsNoSession(t *testing.T) {
	f := newFixture()
	f.transcriber.err = errors.New("unreadable audio")

	_, err := f.orch.ProcessVoice(context.Background(), VoiceRequest{
		Audio:    []byte("garbage"),
		Filename: "turn.mp3",
	})
	require.Error(t, err)

	recs, listErr := f.svc.ListByUser(context.Background(), "", 0)
	require.NoError(t, listErr)
	assert.Empty(t, recs, "the session is resolved only after transcription succeeds")
}

func TestVoiceWithoutTranscriberRejected(t *testing.T) {
	orch := NewOrchestrator(Config{
		Sessions:   sessionsrv.NewSessionService(session.NewMemoryStore()),
		Translator: &fakeTranslator{},
		Locations:  &fakeResolver{},
		Rides:      &fakeRides{},
	})

	_, err := orch.ProcessVoice(context.Background(), VoiceRequest{Audio: []byte("x"), Filename: "a.mp3"})
	var typed *errx.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, ErrCodeVoiceNotConfigured, typed.Code)
}

// ============================================================================
// Session management and health
// ============================================================================

func TestSessionManagement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	resp := f.chat(t, "", "hello")

	rec, err := f.orch.GetSession(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, rec.SessionID)

	require.NoError(t, f.orch.ExtendSession(ctx, resp.SessionID))
	require.NoError(t, f.orch.DeleteSession(ctx, resp.SessionID))

	_, err = f.orch.GetSession(ctx, resp.SessionID)
	var typed *errx.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, session.ErrCodeNotFound, typed.Code)

	assert.Error(t, f.orch.ExtendSession(ctx, resp.SessionID))
	assert.Error(t, f.orch.DeleteSession(ctx, resp.SessionID))
}

func TestListUserSessions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.orch.ProcessChat(ctx, ChatRequest{Message: "hello", UserID: "rider-7"})
	require.NoError(t, err)
	_, err = f.orch.ProcessChat(ctx, ChatRequest{Message: "hello", UserID: "rider-7"})
	require.NoError(t, err)

	recs, err := f.orch.ListUserSessions(ctx, "rider-7", 0)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestHealth(t *testing.T) {
	f := newFixture()
	assert.NoError(t, f.orch.Health(context.Background()))

	broken := NewOrchestrator(Config{
		Sessions:   sessionsrv.NewSessionService(failingStore{}),
		Translator: &fakeTranslator{},
		Locations:  &fakeResolver{},
		Rides:      &fakeRides{},
	})
	assert.Error(t, broken.Health(context.Background()))
}
