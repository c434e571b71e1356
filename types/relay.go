package types

import "encoding/json"

// DeviceRecord is the persisted association between a device identifier,
// its credential digest, and its set of delivery tokens. It is stored as
// a JSON value under the key "device:{device_id}". The raw secret is
// never persisted, only its digest.
type DeviceRecord struct {
	SecretDigest string   `json:"secret_digest"`
	Tokens       []string `json:"tokens"`
}

// HasToken reports whether token is already bound to the record.
func (r *DeviceRecord) HasToken(token string) bool {
	for _, t := range r.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// AddToken binds token to the record. Tokens form a set: adding an
// already-bound token is a no-op.
func (r *DeviceRecord) AddToken(token string) {
	if !r.HasToken(token) {
		r.Tokens = append(r.Tokens, token)
	}
}

// RemoveToken unbinds token from the record. Removing an unbound token
// is a no-op.
func (r *DeviceRecord) RemoveToken(token string) {
	for i, t := range r.Tokens {
		if t == token {
			r.Tokens = append(r.Tokens[:i], r.Tokens[i+1:]...)
			return
		}
	}
}

// RegisterRequest is the body of POST /register and POST /unregister.
type RegisterRequest struct {
	DeviceID  string `json:"device_id"`
	Secret    string `json:"secret"`
	PushToken string `json:"push_token"`
}

// PushRequest is the body of POST /push. Data is an optional free-form
// payload forwarded to every delivery token.
type PushRequest struct {
	DeviceID string                 `json:"device_id"`
	Secret   string                 `json:"secret"`
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// RegisterResponse is returned on a successful registration.
type RegisterResponse struct {
	Status     string `json:"status"`
	TokenCount int    `json:"token_count"`
}

// UnregisterResponse is returned on a successful unregistration.
type UnregisterResponse struct {
	Status string `json:"status"`
}

// PushResponse carries the push network's acknowledgment verbatim; the
// relay does not interpret per-token delivery outcomes.
type PushResponse struct {
	Status string          `json:"status"`
	Expo   json.RawMessage `json:"expo"`
}

// ErrorResponse is the wire format for every failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
