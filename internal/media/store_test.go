package media

import (
	"context"
	"encoding/base64"
	"testing"

	"post-board/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
var pixelPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func TestInlineStoreRoundTrip(t *testing.T) {
	store := NewInlineStore(1 << 20)
	ctx := context.Background()

	ref, err := store.Upload(ctx, pixelPNG)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pixelPNG), ref)

	obj, err := store.Fetch(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, pixelPNG, obj.Data)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, ".png", obj.Extension)
}

func TestInlineStoreRejectsBadUploads(t *testing.T) {
	ctx := context.Background()

	_, err := NewInlineStore(1<<20).Upload(ctx, []byte("just some text"))
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidation))

	_, err = NewInlineStore(10).Upload(ctx, pixelPNG)
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidation))

	_, err = NewInlineStore(10).Upload(ctx, nil)
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidation))
}

func TestInlineStoreFetchErrors(t *testing.T) {
	store := NewInlineStore(0)
	ctx := context.Background()

	_, err := store.Fetch(ctx, "")
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	_, err = store.Fetch(ctx, "%%%not-base64")
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	html := base64.StdEncoding.EncodeToString([]byte("<html><script>alert(1)</script></html>"))
	_, err = store.Fetch(ctx, html)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestInlineStoreAccept(t *testing.T) {
	store := NewInlineStore(1 << 20)
	ctx := context.Background()
	encoded := base64.StdEncoding.EncodeToString(pixelPNG)

	ref, err := store.Accept(ctx, encoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, ref)

	ref, err = store.Accept(ctx, "https://cdn.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", ref)

	for _, bad := range []string{
		"not base64!!",
		base64.StdEncoding.EncodeToString([]byte("<html><script>alert(1)</script></html>")),
		"",
	} {
		_, err = store.Accept(ctx, bad)
		assert.True(t, utils.IsErrorCode(err, utils.ErrValidation), "ref %q", bad)
	}

	_, err = NewInlineStore(10).Accept(ctx, encoded)
	assert.True(t, utils.IsErrorCode(err, utils.ErrValidation))
}

func TestExternalURL(t *testing.T) {
	u, ok := ExternalURL("https://cdn.example.com/a.png")
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/a.png", u)

	_, ok = ExternalURL(base64.StdEncoding.EncodeToString(pixelPNG))
	assert.False(t, ok)

	_, ok = ExternalURL("https://")
	assert.False(t, ok)
}
