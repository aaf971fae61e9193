package conversation

import (
	"context"
	"errors"

	"github.com/vaahana-ai/vaahana/session"
)

// Hand-rolled port fakes. Each one records its calls so tests can
// assert on what the orchestrator asked for.

type fakeTranslator struct {
	lang           session.Language  // detection result, "" means English
	toEnglish      map[string]string // user text -> pivot text
	err            error             // forced translation failure
	translateCalls int
}

func (f *fakeTranslator) Detect(_ context.Context, _ string) session.Language {
	if f.lang == "" {
		return session.LanguageEnglish
	}
	return f.lang
}

func (f *fakeTranslator) Translate(_ context.Context, text string, from, to session.Language) (string, error) {
	f.translateCalls++
	if f.err != nil {
		return "", f.err
	}
	if to == session.LanguageEnglish {
		if out, ok := f.toEnglish[text]; ok {
			return out, nil
		}
		return text, nil
	}
	return "[" + string(to) + "] " + text, nil
}

type fakeResolver struct {
	places map[string]*session.Location
	err    error
	calls  []string
}

func (f *fakeResolver) Resolve(_ context.Context, text string) (*session.Location, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.places[text], nil
}

type createCall struct {
	phone  string
	pickup *session.Location
	drop   *session.Location
}

type fakeRides struct {
	booking   *session.RideBooking
	createErr error
	cancelErr error
	status    *session.RideStatusInfo
	statusErr error
	created   []createCall
	cancelled []int64
}

func (f *fakeRides) CreateRide(_ context.Context, phone string, pickup, drop *session.Location) (*session.RideBooking, error) {
	f.created = append(f.created, createCall{phone: phone, pickup: pickup, drop: drop})
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.booking != nil {
		return f.booking, nil
	}
	return &session.RideBooking{RideID: 4521, Message: "Ride created successfully"}, nil
}

func (f *fakeRides) CancelRide(_ context.Context, rideID int64) error {
	f.cancelled = append(f.cancelled, rideID)
	return f.cancelErr
}

func (f *fakeRides) RideStatus(_ context.Context, rideID int64) (*session.RideStatusInfo, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if f.status != nil {
		return f.status, nil
	}
	return &session.RideStatusInfo{RideID: rideID, Status: session.RideStatusDriverAssigned}, nil
}

type fakeTranscriber struct {
	text string
	lang session.Language
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (*Transcription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Transcription{Text: f.text, Language: f.lang}, nil
}

type synthCall struct {
	text string
	lang session.Language
}

type fakeSynthesizer struct {
	data  []byte
	err   error
	calls []synthCall
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text string, lang session.Language) ([]byte, error) {
	f.calls = append(f.calls, synthCall{text: text, lang: lang})
	if f.err != nil {
		return nil, f.err
	}
	if f.data != nil {
		return f.data, nil
	}
	return []byte("mp3-bytes"), nil
}

type fakeAudioStore struct {
	url  string
	err  error
	puts []string
}

func (f *fakeAudioStore) Put(_ context.Context, name string, _ []byte) (string, error) {
	f.puts = append(f.puts, name)
	if f.err != nil {
		return "", f.err
	}
	if f.url != "" {
		return f.url, nil
	}
	return "/audio/" + name, nil
}

// failingStore simulates the session backend being unreachable.
type failingStore struct{}

var errStoreDown = errors.New("connection refused")

func (failingStore) Create(context.Context, *session.Record) error { return errStoreDown }
func (failingStore) Get(context.Context, string) (*session.Record, error) {
	return nil, errStoreDown
}
func (failingStore) Save(context.Context, *session.Record) (bool, error) {
	return false, errStoreDown
}
func (failingStore) Extend(context.Context, string) (bool, error) { return false, errStoreDown }
func (failingStore) Delete(context.Context, string) (bool, error) { return false, errStoreDown }
func (failingStore) ListByUser(context.Context, string, int) ([]*session.Record, error) {
	return nil, errStoreDown
}
