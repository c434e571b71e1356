package models

import (
	"context"
	"testing"

	apperrors "github.com/CarbonSMASH/push-relay/errors"
	"github.com/CarbonSMASH/push-relay/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry() (*DeviceRegistry, *store.MemoryStore) {
	kv := store.NewMemoryStore()
	return NewDeviceRegistry(kv, zap.NewNop()), kv
}

func TestRegister_CreatesRecord(t *testing.T) {
	reg, kv := newTestRegistry()
	ctx := context.Background()

	record, created, err := reg.Register(ctx, "d1", "s1", "t1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []string{"t1"}, record.Tokens)
	assert.Len(t, record.SecretDigest, 64)
	assert.NotEqual(t, "s1", record.SecretDigest)
	assert.Equal(t, 1, kv.Len())
}

func TestRegister_Idempotent(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()

	_, _, err := reg.Register(ctx, "d1", "s1", "t1")
	require.NoError(t, err)

	record, created, err := reg.Register(ctx, "d1", "s1", "t1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, []string{"t1"}, record.Tokens, "re-registering a bound token must not change membership")
}

func TestRegister_AddsSecondToken(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()

	_, _, err := reg.Register(ctx, "d1", "s1", "t1")
	require.NoError(t, err)

	record, created, err := reg.Register(ctx, "d1", "s1", "t2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.ElementsMatch(t, []string{"t1", "t2"}, record.Tokens)
}

func TestRegister_SecretMismatchLeavesSetUntouched(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()

	first, _, err := reg.Register(ctx, "d1", "s1", "t1")
	require.NoError(t, err)
	originalDigest := first.SecretDigest

	_, _, err = reg.Register(ctx, "d1", "wrong", "t2")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 403, appErr.GetHTTPStatus())

	record, err := reg.GetAuthorized(ctx, "d1", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, record.Tokens)
	assert.Equal(t, originalDigest, record.SecretDigest, "a mismatched secret must never overwrite the digest")
}

func TestUnregister_UnboundTokenIsNoOp(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()

	_, _, err := reg.Register(ctx, "d1", "s1", "t1")
	require.NoError(t, err)

	require.NoError(t, reg.Unregister(ctx, "d1", "s1", "t2"))
	require.NoError(t, reg.Unregister(ctx, "d1", "s1", "t2"), "repeated unregister of an unbound token must succeed")

	record, err := reg.GetAuthorized(ctx, "d1", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, record.Tokens)
}

func TestUnregister_LastTokenDeletesRecord(t *testing.T) {
	reg, kv := newTestRegistry()
	ctx := context.Background()

	_, _, err := reg.Register(ctx, "d1", "s1", "t1")
	require.NoError(t, err)

	require.NoError(t, reg.Unregister(ctx, "d1", "s1", "t1"))
	assert.Equal(t, 0, kv.Len(), "empty record must be deleted, not persisted")

	// Push authorization now fails with NoTokens.
	_, err = reg.GetAuthorized(ctx, "d1", "s1")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.GetHTTPStatus())

	// A fresh register behaves as if the device never existed: a new
	// secret may be set without matching any prior one.
	record, created, err := reg.Register(ctx, "d1", "completely-new-secret", "t9")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []string{"t9"}, record.Tokens)
}

func TestUnregister_UnknownDeviceOrBadSecret(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()

	_, _, err := reg.Register(ctx, "d1", "s1", "t1")
	require.NoError(t, err)

	// Unknown device and bad secret must be indistinguishable.
	errUnknown := reg.Unregister(ctx, "ghost", "s1", "t1")
	errBadSecret := reg.Unregister(ctx, "d1", "wrong", "t1")

	var appErr *apperrors.AppError
	require.ErrorAs(t, errUnknown, &appErr)
	assert.Equal(t, 403, appErr.GetHTTPStatus())
	unknownMsg := appErr.Message

	require.ErrorAs(t, errBadSecret, &appErr)
	assert.Equal(t, 403, appErr.GetHTTPStatus())
	assert.Equal(t, unknownMsg, appErr.Message)
}

func TestGetAuthorized(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()

	_, _, err := reg.Register(ctx, "d1", "s1", "t1")
	require.NoError(t, err)

	record, err := reg.GetAuthorized(ctx, "d1", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, record.Tokens)

	_, err = reg.GetAuthorized(ctx, "d1", "wrong")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 403, appErr.GetHTTPStatus())
}

func TestRegister_PersistedLayout(t *testing.T) {
	reg, kv := newTestRegistry()
	ctx := context.Background()

	_, _, err := reg.Register(ctx, "d1", "s1", "t1")
	require.NoError(t, err)

	raw, err := kv.Get(ctx, "device:d1")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"secret_digest"`)
	assert.Contains(t, string(raw), `"tokens"`)
	assert.NotContains(t, string(raw), "s1", "raw secret must never be persisted")
}
