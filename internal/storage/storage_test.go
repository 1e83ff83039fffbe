package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1760000000123)
	assert.Equal(t, "prcIDs/1760000000123_prc id.jpg", ObjectKey(CredentialPrefix, "prc id.jpg", now))
	assert.Equal(t, "profilePics/1760000000123___etc_passwd", ObjectKey(ProfilePicPrefix, "../etc/passwd", now))
	assert.Equal(t, "prcIDs/1760000000123_upload", ObjectKey(CredentialPrefix, "  ", now))
}

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	ls, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files", []byte("key"))
	require.NoError(t, err)

	key := ObjectKey(CredentialPrefix, "id.png", time.Now())
	require.NoError(t, ls.Put(ctx, key, strings.NewReader("image"), "image/png"))

	ok, err := ls.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := ls.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "image", string(data))

	require.NoError(t, ls.Delete(ctx, key))
	require.NoError(t, ls.Delete(ctx, key))

	_, err = ls.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "", nil)
	require.NoError(t, err)
	assert.Error(t, ls.Put(context.Background(), "../outside", strings.NewReader("x"), "text/plain"))
}

func TestLocalSignedURL(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files/", []byte("key"))
	require.NoError(t, err)
	now := time.Unix(1700000000, 0)
	ls.now = func() time.Time { return now }

	raw, err := ls.SignedURL(context.Background(), "prcIDs/1_a.png", time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/files/prcIDs/1_a.png", u.Path)

	exp, sig := u.Query().Get("expires"), u.Query().Get("signature")
	assert.True(t, ls.VerifySignature("prcIDs/1_a.png", exp, sig))
	assert.False(t, ls.VerifySignature("prcIDs/2_b.png", exp, sig))

	ls.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.False(t, ls.VerifySignature("prcIDs/1_a.png", exp, sig))
}
