package storage

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Backend is the raw string key/value persistence underneath a KV.
type Backend interface {
	Load(key string) (string, bool, error)
	Save(key, value string) error
	Delete(key string) error
}

// KV is the persistent key/value store used for tokens and store snapshots.
// A KV with a nil backend behaves as an empty, read-only store.
type KV struct {
	backend Backend
	logger  zerolog.Logger
}

type KVOption func(*KV)

func WithLogger(logger zerolog.Logger) KVOption {
	return func(kv *KV) {
		kv.logger = logger
	}
}

func New(backend Backend, options ...KVOption) *KV {
	kv := &KV{backend: backend, logger: log.Logger}
	for _, opt := range options {
		opt(kv)
	}
	return kv
}

// Get returns the value stored under key, or "" when the key is absent or no backend is available.
func (kv *KV) Get(key string) string {
	if kv == nil || kv.backend == nil {
		return ""
	}
	value, ok, err := kv.backend.Load(key)
	if err != nil {
		kv.logger.Warn().Err(err).Str("key", key).Msg("storage load failed")
		return ""
	}
	if !ok {
		return ""
	}
	return value
}

// GetJSON decodes the value stored under key into out. It reports false when
// the key is absent or the value is not valid JSON for out.
func (kv *KV) GetJSON(key string, out any) bool {
	raw := kv.Get(key)
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		kv.logger.Warn().Err(err).Str("key", key).Msg("storage value is not valid JSON")
		return false
	}
	return true
}

// Set writes value under key. Strings are stored as-is, anything else is JSON encoded.
func (kv *KV) Set(key string, value any) error {
	if kv == nil || kv.backend == nil {
		return nil
	}
	data, err := Serialize(value)
	if err != nil {
		return fmt.Errorf("storage.Set %s: %w", key, err)
	}
	return kv.backend.Save(key, data)
}

func (kv *KV) Remove(key string) error {
	if kv == nil || kv.backend == nil {
		return nil
	}
	return kv.backend.Delete(key)
}

// Serialize returns strings unchanged and JSON encodes every other value.
func Serialize(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
