package persist

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Lister is implemented by gateways that can read every blob in one call.
type Lister interface {
	All() (map[string]json.RawMessage, error)
}

// Replacer is implemented by gateways that can swap the whole key space
// atomically.
type Replacer interface {
	ReplaceAll(blobs map[string]json.RawMessage) error
}

// ReadAll returns every tracker key that has a value.
func ReadAll(gw Gateway) (map[string]json.RawMessage, error) {
	if l, ok := gw.(Lister); ok {
		all, err := l.All()
		if err != nil {
			return nil, fmt.Errorf("read blobs: %w", err)
		}
		return ownKeys(all), nil
	}
	out := make(map[string]json.RawMessage, len(AllKeys))
	for _, key := range AllKeys {
		data, err := gw.Get(key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		out[key] = json.RawMessage(data)
	}
	return out, nil
}

// ReplaceAll makes the tracker keys hold exactly blobs. Keys outside AllKeys
// are ignored. Either every key is written or storage is left as it was:
// gateways implementing Replacer do it in one step, others are written key
// by key and the keys already touched are put back on failure.
func ReplaceAll(gw Gateway, blobs map[string]json.RawMessage) error {
	next := ownKeys(blobs)
	for key, data := range next {
		if !json.Valid(data) {
			return fmt.Errorf("blob %s is not valid JSON", key)
		}
	}
	if r, ok := gw.(Replacer); ok {
		if err := r.ReplaceAll(next); err != nil {
			return fmt.Errorf("replace blobs: %w", err)
		}
		return nil
	}

	prev, err := ReadAll(gw)
	if err != nil {
		return err
	}
	touched, err := writeKeys(gw, AllKeys, next)
	if err == nil {
		return nil
	}
	if _, rerr := writeKeys(gw, touched, prev); rerr != nil {
		err = multierr.Append(err, fmt.Errorf("roll back: %w", rerr))
	}
	return err
}

// writeKeys sets or removes each key so it matches blobs, stopping at the
// first failure. It returns the keys it changed.
func writeKeys(gw Gateway, keys []string, blobs map[string]json.RawMessage) ([]string, error) {
	var touched []string
	for _, key := range keys {
		data, ok := blobs[key]
		if !ok {
			if err := gw.Remove(key); err != nil {
				return touched, fmt.Errorf("remove %s: %w", key, err)
			}
		} else if err := gw.Set(key, data); err != nil {
			return touched, fmt.Errorf("write %s: %w", key, err)
		}
		touched = append(touched, key)
	}
	return touched, nil
}

func ownKeys(blobs map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(AllKeys))
	for _, key := range AllKeys {
		if data, ok := blobs[key]; ok {
			out[key] = data
		}
	}
	return out
}
