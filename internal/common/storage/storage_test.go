// internal/common/storage/storage_test.go
package storage

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestLocal_PutGet(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "https://files.example.test/docs")
	require.NoError(t, err)

	key := "6f1c2b8e-3d4a-4c5b-9e7f-1a2b3c4d5e6f/0b8f.jpg"
	url, err := l.Put(context.Background(), key, []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.test/docs/"+key, url)

	data, err := l.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	_, err = l.Put(context.Background(), key, []byte("other"), "image/jpeg")
	assert.ErrorIs(t, err, ErrObjectExists)

	_, err = l.Get(context.Background(), "nope/x.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateKey(t *testing.T) {
	for _, key := range []string{"", "/abs/x.jpg", "a/../b.jpg", "../x", "a//b", `a\b.jpg`, "a/./b"} {
		assert.ErrorIs(t, validateKey(key), ErrInvalidKey, key)
	}
	assert.NoError(t, validateKey("app/123.pdf"))
}

func TestRetry(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, time.Millisecond, isTransient, func() error {
		calls++
		if calls < 3 {
			return &googleapi.Error{Code: http.StatusServiceUnavailable}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retry(context.Background(), 3, time.Millisecond, isTransient, func() error {
		calls++
		return classify("k", &googleapi.Error{Code: http.StatusPreconditionFailed})
	})
	assert.ErrorIs(t, err, ErrObjectExists)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&googleapi.Error{Code: 503}))
	assert.True(t, isTransient(&googleapi.Error{Code: 429}))
	assert.False(t, isTransient(&googleapi.Error{Code: 403}))
	assert.False(t, isTransient(ErrObjectExists))
	assert.True(t, isTransient(errors.New("connection reset")))
}
