package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	"github.com/angelmondragon/entrydesk-backend/pkg/outbox/payloads"
)

// DecoderFunc turns the envelope data of one event type/version into a typed payload.
type DecoderFunc func(payload json.RawMessage) (interface{}, error)

type registryKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry stores versioned payload decoders for consumers.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	registry map[registryKey]DecoderFunc
}

// NewDecoderRegistry builds an empty decoder registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{registry: make(map[registryKey]DecoderFunc)}
}

// NewEntryDecoders registers v1 decoders for every entry lifecycle event.
func NewEntryDecoders() *DecoderRegistry {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventEntrySubmitted, 1, JSONDecoder[payloads.EntrySubmittedEvent]())
	reg.Register(enums.EventEntryApproved, 1, JSONDecoder[payloads.EntryDecidedEvent]())
	reg.Register(enums.EventEntryRejected, 1, JSONDecoder[payloads.EntryDecidedEvent]())
	reg.Register(enums.EventEntryReviewOverdue, 1, JSONDecoder[payloads.EntryReviewOverdueEvent]())
	return reg
}

// JSONDecoder decodes the payload into a freshly allocated *T.
func JSONDecoder[T any]() DecoderFunc {
	return func(payload json.RawMessage) (interface{}, error) {
		out := new(T)
		if err := json.Unmarshal(payload, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// Register stores a decoder for the given event type and version.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder DecoderFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.registry[registryKey{eventType: eventType, version: version}] = decoder
}

// Decode runs the decoder registered for the event type and version.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error) {
	r.mtx.RLock()
	decoder, ok := r.registry[registryKey{eventType: eventType, version: version}]
	r.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
	}
	return decoder(payload)
}

// Handles reports whether any version of eventType is registered.
func (r *DecoderRegistry) Handles(eventType enums.OutboxEventType) bool {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	for key := range r.registry {
		if key.eventType == eventType {
			return true
		}
	}
	return false
}
