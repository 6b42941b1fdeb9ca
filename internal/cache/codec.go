package cache

import (
	"encoding/json"
	"sync"

	apperrors "argus-backend/internal/errors"
)

// Codec is the serialization contract for one cache class. Each class
// registers an encode/decode pair so payload shape is statically known
// instead of being an arbitrary untyped map.
type Codec interface {
	Encode(value any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// JSONCodec serializes payloads of type T as JSON.
type JSONCodec[T any] struct{}

// Encode implements Codec. The value must be a T or *T.
func (JSONCodec[T]) Encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, apperrors.NewSerializationError("codec.encode", err)
	}
	return data, nil
}

// Decode implements Codec and returns a *T.
func (JSONCodec[T]) Decode(data []byte) (any, error) {
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, apperrors.NewSerializationError("codec.decode", err)
	}
	return &value, nil
}

// RawCodec passes []byte payloads through untouched. It is the fallback
// for classes without a registered codec.
type RawCodec struct{}

// Encode implements Codec.
func (RawCodec) Encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, apperrors.NewSerializationError("codec.encode", err)
		}
		return data, nil
	}
}

// Decode implements Codec.
func (RawCodec) Decode(data []byte) (any, error) {
	return data, nil
}

// CodecRegistry maps cache classes to their codecs. Registration normally
// happens once at startup; the registry is nonetheless safe for concurrent
// use because the extension API is public.
type CodecRegistry struct {
	mu     sync.RWMutex
	codecs map[Class]Codec
}

// NewCodecRegistry creates an empty registry.
func NewCodecRegistry() *CodecRegistry {
	return &CodecRegistry{codecs: make(map[Class]Codec)}
}

// Register binds a codec to a class, replacing any previous binding.
func (r *CodecRegistry) Register(class Class, codec Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[class] = codec
}

// For returns the codec for class, falling back to RawCodec.
func (r *CodecRegistry) For(class Class) Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if codec, ok := r.codecs[class]; ok {
		return codec
	}
	return RawCodec{}
}
