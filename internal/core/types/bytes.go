package types

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Bytes is a byte count that reads and writes as a human string ("10MB").
type Bytes uint64

func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bytes) UnmarshalText(data []byte) error {
	return b.Set(string(data))
}

func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*b = Bytes(uint64(num))
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return b.Set(raw)
}

func (b *Bytes) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return b.Set(raw)
}

func (b Bytes) MarshalYAML() (any, error) {
	return b.String(), nil
}

func (b Bytes) String() string {
	return humanize.Bytes(uint64(b))
}

func (b Bytes) Int64() int64 {
	return int64(b)
}

// Set parses values such as "512KB", "10 MiB" or a bare number of bytes.
func (b *Bytes) Set(value string) error {
	if value == "" {
		*b = 0
		return nil
	}
	parsed, err := humanize.ParseBytes(value)
	if err != nil {
		return fmt.Errorf("invalid byte string %q: %w", value, err)
	}
	*b = Bytes(parsed)
	return nil
}
