package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustedDocuments(t *testing.T) {
	c := NewTrustedDocuments(0)

	assert.False(t, c.IsTrusted("example.org"))

	c.Trust("example.org")
	assert.True(t, c.IsTrusted("example.org"))
	assert.False(t, c.IsTrusted("example.com"))

	c.Cleanup()
	assert.False(t, c.IsTrusted("example.org"))
}

func TestTrustedDocumentsExpire(t *testing.T) {
	c := NewTrustedDocuments(10 * time.Millisecond)

	c.Trust("example.org")
	assert.True(t, c.IsTrusted("example.org"))

	assert.Eventually(t, func() bool {
		return !c.IsTrusted("example.org")
	}, time.Second, 10*time.Millisecond)
}

func TestTrustedDocumentsPersist(t *testing.T) {
	c := NewTrustedDocuments(time.Hour)
	c.Trust("example.org")
	c.Trust("example.com")

	data, err := c.Persist()
	require.NoError(t, err)

	restored := NewTrustedDocuments(time.Hour)
	require.NoError(t, restored.Load(data))
	assert.True(t, restored.IsTrusted("example.org"))
	assert.True(t, restored.IsTrusted("example.com"))
	assert.False(t, restored.IsTrusted("example.net"))
}

func TestTrustedDocumentsLoadExpired(t *testing.T) {
	c := NewTrustedDocuments(time.Nanosecond)
	c.Trust("example.org")

	// Let the only entry expire before the snapshot is restored.
	time.Sleep(10 * time.Millisecond)

	data, err := c.Persist()
	require.NoError(t, err)

	restored := NewTrustedDocuments(time.Hour)
	require.NoError(t, restored.Load(data))
	assert.False(t, restored.IsTrusted("example.org"))
}

func TestTrustedDocumentsLoadCorrupted(t *testing.T) {
	c := NewTrustedDocuments(time.Hour)
	c.Trust("example.org")

	err := c.Load([]byte("not json"))
	require.Error(t, err)
	assert.False(t, c.IsTrusted("example.org"))
}
