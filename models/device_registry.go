package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/CarbonSMASH/push-relay/errors"
	"github.com/CarbonSMASH/push-relay/internal/auth"
	"github.com/CarbonSMASH/push-relay/logger"
	"github.com/CarbonSMASH/push-relay/store"
	"github.com/CarbonSMASH/push-relay/types"
	"go.uber.org/zap"
)

const deviceKeyPrefix = "device:"

// DeviceRegistry owns the device_id -> {secret_digest, tokens} mapping.
// It is a read-modify-write layer over the external key-value store; two
// concurrent registrations racing to create the same record resolve
// last-writer-wins within the store's per-key atomicity. The registry
// adds no locking of its own.
type DeviceRegistry struct {
	kv     store.KVStore
	logger *zap.Logger
}

// NewDeviceRegistry creates a registry backed by kv.
func NewDeviceRegistry(kv store.KVStore, logger *zap.Logger) *DeviceRegistry {
	return &DeviceRegistry{
		kv:     kv,
		logger: logger.Named("DeviceRegistry"),
	}
}

func deviceKey(deviceID string) string {
	return deviceKeyPrefix + deviceID
}

// load reads and decodes the record for deviceID. Returns
// store.ErrNotFound unchanged so callers can branch on absence.
func (r *DeviceRegistry) load(ctx context.Context, deviceID string) (*types.DeviceRecord, error) {
	raw, err := r.kv.Get(ctx, deviceKey(deviceID))
	if err != nil {
		return nil, err
	}

	var record types.DeviceRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode device record: %w", err)
	}
	return &record, nil
}

func (r *DeviceRegistry) save(ctx context.Context, deviceID string, record *types.DeviceRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode device record: %w", err)
	}
	return r.kv.Put(ctx, deviceKey(deviceID), raw)
}

// Register binds token to deviceID, creating the record on first sight.
// An existing record requires the matching secret; a mismatch mutates
// nothing. Re-registering a bound token is a successful no-op for the
// set. Returns the resulting record and whether it was newly created.
func (r *DeviceRegistry) Register(ctx context.Context, deviceID, secret, token string) (*types.DeviceRecord, bool, error) {
	record, err := r.load(ctx, deviceID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, apperrors.NewStoreError(err)
		}

		// First registration for this device. If two callers race here,
		// the store's last write wins; both hold the same secret in
		// practice, so the surviving record is equivalent.
		record = &types.DeviceRecord{
			SecretDigest: auth.HashSecret(secret),
			Tokens:       []string{token},
		}
		if err := r.save(ctx, deviceID, record); err != nil {
			return nil, false, apperrors.NewStoreError(err)
		}

		r.logger.Info("Device registered",
			zap.String("deviceID", deviceID),
			zap.String("token", logger.MaskToken(token)))
		return record, true, nil
	}

	if !auth.Verify(record.SecretDigest, secret) {
		r.logger.Warn("Registration rejected: secret mismatch",
			zap.String("deviceID", deviceID))
		return nil, false, apperrors.InvalidSecret()
	}

	// The digest never changes on an existing record; only the token set grows.
	record.AddToken(token)
	if err := r.save(ctx, deviceID, record); err != nil {
		return nil, false, apperrors.NewStoreError(err)
	}

	r.logger.Info("Token registered",
		zap.String("deviceID", deviceID),
		zap.String("token", logger.MaskToken(token)),
		zap.Int("tokenCount", len(record.Tokens)))
	return record, false, nil
}

// Unregister removes token from deviceID's record after verifying the
// secret. An unknown device and a secret mismatch are deliberately
// indistinguishable to the caller. Removing an unbound token succeeds as
// a no-op; removing the last token deletes the record entirely.
func (r *DeviceRegistry) Unregister(ctx context.Context, deviceID, secret, token string) error {
	record, err := r.load(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.InvalidSecret()
		}
		return apperrors.NewStoreError(err)
	}

	if !auth.Verify(record.SecretDigest, secret) {
		r.logger.Warn("Unregistration rejected: secret mismatch",
			zap.String("deviceID", deviceID))
		return apperrors.InvalidSecret()
	}

	record.RemoveToken(token)

	// A record exists iff it has at least one token.
	if len(record.Tokens) == 0 {
		if err := r.kv.Delete(ctx, deviceKey(deviceID)); err != nil {
			return apperrors.NewStoreError(err)
		}
		r.logger.Info("Last token removed, device record deleted",
			zap.String("deviceID", deviceID))
		return nil
	}

	if err := r.save(ctx, deviceID, record); err != nil {
		return apperrors.NewStoreError(err)
	}

	r.logger.Info("Token unregistered",
		zap.String("deviceID", deviceID),
		zap.String("token", logger.MaskToken(token)),
		zap.Int("tokenCount", len(record.Tokens)))
	return nil
}

// GetAuthorized returns the record for deviceID after verifying the
// secret. An absent record means the device has no tokens (records are
// deleted when their last token goes), so it surfaces as NoTokens rather
// than Unauthorized; an existing record with a bad secret is rejected.
func (r *DeviceRegistry) GetAuthorized(ctx context.Context, deviceID, secret string) (*types.DeviceRecord, error) {
	record, err := r.load(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NoTokensRegistered()
		}
		return nil, apperrors.NewStoreError(err)
	}

	if !auth.Verify(record.SecretDigest, secret) {
		return nil, apperrors.InvalidSecret()
	}

	if len(record.Tokens) == 0 {
		// Shouldn't persist, but guard against a hand-edited store.
		return nil, apperrors.NoTokensRegistered()
	}

	return record, nil
}
