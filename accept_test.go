package wsclient

import (
	"crypto/sha1"
	"encoding/base64"
	"testing"

	"github.com/google/uuid"

	"nhooyr.io/wsclient/internal/test/assert"
)

func TestSecWebSocketAccept(t *testing.T) {
	t.Parallel()

	// https://tools.ietf.org/html/rfc6455#section-1.3
	assert.Equal(t, "accept", "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", secWebSocketAccept("dGhlIHNhbXBsZSBub25jZQ=="))
}

func TestSecWebSocketKey(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	key := secWebSocketKey(id)

	b, err := base64.StdEncoding.DecodeString(key)
	assert.Success(t, err)
	assert.Equal(t, "nonce", id[:], b)
}

func TestValidAccept(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	key := secWebSocketKey(id)

	sum := sha1.Sum([]byte(key + "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"))
	good := base64.StdEncoding.EncodeToString(sum[:])
	assert.Equal(t, "expected accept", good, secWebSocketAccept(key))
	assert.Equal(t, "valid", true, validAccept(key, good))

	t.Run("bitFlips", func(t *testing.T) {
		t.Parallel()

		for i := 0; i < len(sum)*8; i++ {
			b := sum
			b[i/8] ^= 1 << (i % 8)
			v := base64.StdEncoding.EncodeToString(b[:])
			if validAccept(key, v) {
				t.Fatalf("accepted digest with bit %v flipped", i)
			}
		}
	})

	t.Run("lengths", func(t *testing.T) {
		t.Parallel()

		short := base64.StdEncoding.EncodeToString(sum[:19])
		assert.Equal(t, "short", false, validAccept(key, short))

		long := base64.StdEncoding.EncodeToString(append(sum[:], 0))
		assert.Equal(t, "long", false, validAccept(key, long))

		assert.Equal(t, "empty", false, validAccept(key, ""))
		assert.Equal(t, "not base64", false, validAccept(key, "!!!"))
	})

	t.Run("otherKey", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "other id", false, validAccept(secWebSocketKey(uuid.New()), good))
	})
}
