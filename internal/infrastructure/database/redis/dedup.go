package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Checksum is the de-duplication key of a record: the hex SHA-256 of its
// text.  The same record shipped in a weekly file and again in a
// correction file has the same checksum.
func Checksum(text []byte) string {
	sum := sha256.Sum256(text)
	return hex.EncodeToString(sum[:])
}

// Deduper remembers record checksums for the configured DedupTTL.
type Deduper struct {
	client *Client
	ttl    time.Duration
}

func NewDeduper(client *Client) *Deduper {
	return &Deduper{client: client, ttl: client.Config().DedupTTL}
}

func (d *Deduper) key(sum string) string { return d.client.Key("dedup", sum) }

// Claim marks sum as seen by owner.  It reports false when another record
// with the same checksum was claimed within the TTL.
func (d *Deduper) Claim(ctx context.Context, sum, owner string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(sum), owner, d.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to claim record checksum")
	}
	return ok, nil
}

// Owner returns the value stored by the first Claim of sum.
func (d *Deduper) Owner(ctx context.Context, sum string) (string, error) {
	v, err := d.client.Get(ctx, d.key(sum)).Result()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeCacheError, "failed to read record checksum")
	}
	return v, nil
}

// Release forgets sum so the record can be processed again, as after a
// record-level failure.
func (d *Deduper) Release(ctx context.Context, sum string) error {
	if err := d.client.Del(ctx, d.key(sum)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release record checksum")
	}
	return nil
}

//Personal.AI order the ending
