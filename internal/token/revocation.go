package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/Skotchmaster/authgate/pkg/cache"
)

// RevocationStore keeps the allow-list of live tokens. A signed token is
// only usable while its entry exists: deleting the entry is an instant,
// O(1) revocation, and the TTL lets expired tokens clean themselves up
// without a sweep process.
type RevocationStore struct {
	Cache cache.Cache
	Now   func() time.Time
}

type RevocationEntry struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func NewRevocationStore(c cache.Cache) *RevocationStore {
	return &RevocationStore{Cache: c, Now: time.Now}
}

// Key layout: "<userID>:<sha256(userID ':' token)>". Keeping the user id
// in the clear lets RevokeAll find every entry for one user with a single
// pattern lookup.
func entryKey(id models.Identity, raw string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", id.ID, raw)))
	return fmt.Sprintf("%d:%s", id.ID, hex.EncodeToString(sum[:]))
}

func (s *RevocationStore) Record(ctx context.Context, id models.Identity, raw string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.Now())
	if ttl <= 0 {
		return fmt.Errorf("token already expired at %s", expiresAt)
	}

	entry, err := json.Marshal(RevocationEntry{Token: raw, ExpiresAt: expiresAt.Unix()})
	if err != nil {
		return err
	}
	return s.Cache.Set(ctx, entryKey(id, raw), string(entry), ttl)
}

func (s *RevocationStore) IsLive(ctx context.Context, id models.Identity, raw string) (bool, error) {
	return s.Cache.Exists(ctx, entryKey(id, raw))
}

func (s *RevocationStore) RevokeAll(ctx context.Context, id models.Identity) error {
	keys, err := s.Cache.Keys(ctx, fmt.Sprintf("%d:*", id.ID))
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	// Keys returns full backend keys; the cache re-applies its prefix on
	// delete, so strip it first.
	stripped := make([]string, 0, len(keys))
	for _, k := range keys {
		stripped = append(stripped, strings.TrimPrefix(k, s.Cache.Prefix()))
	}
	return s.Cache.DeleteMultiple(ctx, stripped)
}
