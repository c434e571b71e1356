package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashSecret(t *testing.T) {
	digest := HashSecret("s1")

	assert.Len(t, digest, 64, "digest should be fixed-length hex")
	assert.Equal(t, digest, HashSecret("s1"), "digest should be deterministic")
	assert.NotEqual(t, digest, HashSecret("s2"))
	assert.NotContains(t, digest, "s1", "raw secret must not leak into the digest")
}

func TestVerify(t *testing.T) {
	digest := HashSecret("correct horse battery staple")

	assert.True(t, Verify(digest, "correct horse battery staple"))
	assert.False(t, Verify(digest, "wrong"))
	assert.False(t, Verify(digest, ""))
	assert.False(t, Verify("", "anything"))
}
