package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Short returns the first 12 hex characters, enough for log lines
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// DatasetHash identifies the content of a dataset snapshot
type DatasetHash Hash

func (h DatasetHash) String() string { return Hash(h).String() }

// NewDatasetHash hashes raw dataset bytes
func NewDatasetHash(data []byte) DatasetHash { return DatasetHash(NewHash(data)) }

// ComputeParamsHash builds a stable hash over an operation name and its
// parameters. Keys are sorted so map iteration order never leaks in, and each
// value is JSON encoded so ["a b","c"] and ["a","b c"] stay distinct.
func ComputeParamsHash(operation string, params map[string]interface{}) Hash {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	data.WriteString(operation)
	for _, key := range keys {
		data.WriteString("|")
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(encodeParam(params[key]))
	}

	return NewHash([]byte(data.String()))
}

func encodeParam(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T:%#v", v, v)
	}
	return string(raw)
}
