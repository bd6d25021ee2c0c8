package infra

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const prefijoSesion = "sesion:"

// SesionStore keeps the ids of live sessions in Redis so a logout or a
// deactivated user can revoke a token before it expires.
type SesionStore struct {
	rdb *redis.Client
}

func NewSesionStore(rdb *redis.Client) *SesionStore {
	return &SesionStore{rdb: rdb}
}

func (s *SesionStore) Guardar(ctx context.Context, sid, usuarioID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, prefijoSesion+sid, usuarioID, ttl).Err()
}

// Existe reports whether sid is still live. A missing key is not an error.
func (s *SesionStore) Existe(ctx context.Context, sid string) (bool, error) {
	err := s.rdb.Get(ctx, prefijoSesion+sid).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return err == nil, err
}

func (s *SesionStore) Revocar(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, prefijoSesion+sid).Err()
}
