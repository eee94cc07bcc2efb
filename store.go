package exprjson

import (
	"context"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/hengadev/exprjson/ast"
)

// DocumentStore persists encoded documents by key. Get returns an error
// wrapping ErrDocumentNotFound for unknown keys.
type DocumentStore interface {
	Put(ctx context.Context, key string, body []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// List returns the keys starting with prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Save encodes expr and stores the document under key.
func (c *Codec) Save(ctx context.Context, store DocumentStore, key string, expr ast.Expr) error {
	data, err := c.marshal(ctx, expr)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Load reads the document stored under key and decodes it.
func (c *Codec) Load(ctx context.Context, store DocumentStore, key string) (ast.Expr, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if c.cfg.MaxDocumentSize > 0 && int64(len(data)) > c.cfg.MaxDocumentSize {
		return nil, fmt.Errorf("load %s: %w: %d bytes", key, ErrDocumentTooLarge, len(data))
	}
	return c.unmarshal(ctx, data)
}

// DocumentDigest is the hex BLAKE2b-256 of body. Stores record it on Put and
// check it on Get.
func DocumentDigest(body []byte) string {
	sum := blake2b.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// VerifyDigest returns an error wrapping ErrDocumentCorrupted when body does
// not match digest. An empty digest is accepted.
func VerifyDigest(key string, body []byte, digest string) error {
	if digest == "" {
		return nil
	}
	if got := DocumentDigest(body); got != digest {
		return fmt.Errorf("%w: '%s' has digest %s, recorded %s", ErrDocumentCorrupted, key, got, digest)
	}
	return nil
}
