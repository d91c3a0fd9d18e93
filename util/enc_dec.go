package util

import "encoding/json"

// EncoderDecoder is the codec the storage layer uses to serialize records.
// Keeping it behind an interface leaves room for a binary codec without
// touching the DAOs.
type EncoderDecoder[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte) (*T, error)
}

type JsonEncDec[T any] struct{}

var _ EncoderDecoder[any] = JsonEncDec[any]{}

func NewJsonEncoderDecoder[T any]() JsonEncDec[T] {
	return JsonEncDec[T]{}
}

func (JsonEncDec[T]) Encode(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (JsonEncDec[T]) Decode(data []byte) (*T, error) {
	var res T
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
