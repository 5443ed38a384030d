// Package services – IdempotencyService
//
// IdempotencyService remembers which message a (user, group, Idempotency-Key)
// triple produced so a retried send can be answered with the stored message
// instead of posting the same line twice.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-classroom-backend/internal/domain"
	"github.com/tbourn/go-classroom-backend/internal/repo"
)

// DefaultIdempotencyTTL bounds how long a key can be replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyService stores and replays send results.
type IdempotencyService struct {
	DB  *gorm.DB
	TTL time.Duration
}

func (s *IdempotencyService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultIdempotencyTTL
}

// Seen reports whether userID has a live record for key in any group. It
// is a cheap hint for middleware; Replay is authoritative.
func (s *IdempotencyService) Seen(ctx context.Context, userID uint, key string, now time.Time) (bool, error) {
	if s == nil || s.DB == nil {
		return false, nil
	}
	return repo.IdempotencyKeyExists(ctx, s.DB, userID, key, now)
}

// Replay returns the message recorded for (session user, groupID, key), or
// ErrNotFound when there is nothing to replay.
func (s *IdempotencyService) Replay(ctx context.Context, sess Session, groupID uint, key string) (*domain.Message, error) {
	tr := otel.Tracer("services/IdempotencyService")
	ctx, span := tr.Start(ctx, "Replay")
	defer span.End()

	uid, err := sess.require()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	span.SetAttributes(attribute.Int64("group.id", int64(groupID)))

	rec, err := repo.GetIdempotency(ctx, s.DB, uid, groupID, key, time.Now().UTC())
	if err != nil {
		return nil, storageErr("get idempotency", err)
	}
	m, err := repo.GetMessage(s.DB.WithContext(ctx), rec.MessageID)
	if err != nil {
		return nil, storageErr("get replayed message", err)
	}
	span.SetAttributes(attribute.Bool("idempotency.replayed", true))
	return m, nil
}

// Remember records that key produced messageID. A concurrent request that
// already recorded the same key is not an error.
func (s *IdempotencyService) Remember(ctx context.Context, sess Session, groupID uint, key string, messageID uint) error {
	uid, err := sess.require()
	if err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return nil
	}
	_, err = repo.CreateIdempotency(ctx, s.DB, uid, groupID, key, messageID, http.StatusCreated, s.ttl())
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	if err != nil {
		return storageErr("create idempotency", err)
	}
	return nil
}

// Purge deletes expired records.
func (s *IdempotencyService) Purge(ctx context.Context, now time.Time) (int64, error) {
	n, err := repo.PurgeExpiredIdempotency(ctx, s.DB, now)
	if err != nil {
		return 0, storageErr("purge idempotency", err)
	}
	return n, nil
}
