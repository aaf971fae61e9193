package sessioninfra

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/vaahana-ai/vaahana/session"
)

// Runs against a real Redis when TEST_REDIS_ADDR is set, for example
// TEST_REDIS_ADDR=localhost:6379 go test ./session/sessioninfra/...
type RedisStoreSuite struct {
	suite.Suite
	client *redis.Client
	store  *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if os.Getenv("TEST_REDIS_ADDR") == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping Redis integration tests")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.client = redis.NewClient(&redis.Options{Addr: os.Getenv("TEST_REDIS_ADDR")})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(s.client.Ping(ctx).Err())
	s.store = NewRedisStore(s.client, WithRedisTTL(time.Minute))
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

func (s *RedisStoreSuite) newRecord(userID string) *session.Record {
	rec := session.NewRecord(userID, session.LanguageEnglish)
	s.T().Cleanup(func() {
		_, _ = s.store.Delete(context.Background(), rec.SessionID)
	})
	return rec
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	rec := s.newRecord("user-redis")
	rec.Pickup = &session.Location{
		Address:     "Kochi International Airport",
		Coordinates: session.Coordinates{Lat: 10.15, Lng: 76.39},
		PlaceID:     "place-123",
	}
	rec.AppendTurn(session.TurnEntry{UserMessage: "hello", BotResponse: "hi", Timestamp: time.Now().UTC()})

	s.Require().NoError(s.store.Create(ctx, rec))

	got, err := s.store.Get(ctx, rec.SessionID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(rec.SessionID, got.SessionID)
	s.Equal("Kochi International Airport", got.Pickup.Address)
	s.Len(got.History, 1)
}

func (s *RedisStoreSuite) TestGetMissing() {
	got, err := s.store.Get(context.Background(), "session_missing00000_0")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *RedisStoreSuite) TestSaveOnlyWritesExisting() {
	ctx := context.Background()
	rec := s.newRecord("")
	s.Require().NoError(s.store.Create(ctx, rec))

	rec.State = session.StateAskingDrop
	ok, err := s.store.Save(ctx, rec)
	s.Require().NoError(err)
	s.True(ok)

	_, err = s.store.Delete(ctx, rec.SessionID)
	s.Require().NoError(err)

	ok, err = s.store.Save(ctx, rec)
	s.Require().NoError(err)
	s.False(ok, "save must not resurrect a deleted session")
}

func (s *RedisStoreSuite) TestExpiry() {
	ctx := context.Background()
	short := NewRedisStore(s.client, WithRedisTTL(time.Second))
	rec := s.newRecord("")
	s.Require().NoError(short.Create(ctx, rec))

	time.Sleep(1500 * time.Millisecond)

	got, err := short.Get(ctx, rec.SessionID)
	s.Require().NoError(err)
	s.Nil(got)

	ok, err := short.Extend(ctx, rec.SessionID)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreSuite) TestDeleteIdempotent() {
	ctx := context.Background()
	rec := s.newRecord("")
	s.Require().NoError(s.store.Create(ctx, rec))

	ok, err := s.store.Delete(ctx, rec.SessionID)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Delete(ctx, rec.SessionID)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreSuite) TestListByUser() {
	ctx := context.Background()
	a := s.newRecord("list-user")
	b := s.newRecord("list-user")
	c := s.newRecord("other-user")
	s.Require().NoError(s.store.Create(ctx, a))
	s.Require().NoError(s.store.Create(ctx, b))
	s.Require().NoError(s.store.Create(ctx, c))

	got, err := s.store.ListByUser(ctx, "list-user", 0)
	s.Require().NoError(err)
	s.Len(got, 2)
	for _, rec := range got {
		s.Equal("list-user", rec.UserID)
	}
}
