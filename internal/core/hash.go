package core

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
)

// CacheKey names a hydration bundle. It is the lower-case hex md5 of the
// environment, the source file path and the canonical JSON of the props.
type CacheKey string

func (k CacheKey) String() string {
	return string(k)
}

// CanonicalJSON serializes v so that semantically identical values produce
// identical bytes. Values are marshaled, decoded into generic maps and slices
// and marshaled again, which sorts every object's keys.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	return json.Marshal(generic)
}

func ComputeKey(env Environment, filePath string, props map[string]any) (CacheKey, error) {
	if props == nil {
		props = map[string]any{}
	}

	data, err := CanonicalJSON(props)
	if err != nil {
		return "", &HashingError{File: filePath, Err: err}
	}

	h := md5.New()
	h.Write([]byte(env))
	h.Write([]byte(filePath))
	h.Write(data)
	return CacheKey(hex.EncodeToString(h.Sum(nil))), nil
}
