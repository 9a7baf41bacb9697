package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/models"

	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix   = "session:"
	userSessionsPrefix = "user:sessions:"
	tokenBytes         = 32
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps sessions in Redis under session:<token>, with a per-user
// index set so every session of a user can be revoked at once.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func sessionKey(token string) string       { return sessionKeyPrefix + token }
func userSessionsKey(userID string) string { return userSessionsPrefix + userID }

func newToken() (string, error) {
	raw := securecookie.GenerateRandomKey(tokenBytes)
	if raw == nil {
		return "", fmt.Errorf("generating session token")
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func (s *SessionStore) Create(ctx context.Context, user *models.User) (*models.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, apperrors.NewSessionStoreFailedError(err)
	}

	now := s.now().UTC()
	session := &models.Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := json.Marshal(session)
	if err != nil {
		return nil, apperrors.NewSessionStoreFailedError(err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(token), data, s.ttl)
		pipe.SAdd(ctx, userSessionsKey(user.ID), token)
		pipe.Expire(ctx, userSessionsKey(user.ID), s.ttl)
		return nil
	})
	if err != nil {
		return nil, apperrors.NewSessionStoreFailedError(err)
	}
	return session, nil
}

// Get returns ErrSessionNotFound for unknown or expired tokens.
func (s *SessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	data, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, apperrors.NewSessionStoreFailedError(err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperrors.NewSessionStoreFailedError(fmt.Errorf("decoding session: %w", err))
	}
	if session.IsExpired(s.now()) {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// Delete removes one session. Deleting an unknown token is not an error.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	session, err := s.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(token))
		pipe.SRem(ctx, userSessionsKey(session.UserID), token)
		return nil
	})
	if err != nil {
		return apperrors.NewSessionStoreFailedError(err)
	}
	return nil
}

// DeleteAll revokes every session of the user and returns how many there were.
func (s *SessionStore) DeleteAll(ctx context.Context, userID string) (int, error) {
	tokens, err := s.rdb.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, apperrors.NewSessionStoreFailedError(err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, sessionKey(t))
	}
	keys = append(keys, userSessionsKey(userID))

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return 0, apperrors.NewSessionStoreFailedError(err)
	}
	return len(tokens), nil
}
