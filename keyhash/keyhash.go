// Package keyhash provides hash functions for textual keys.
//
// String and Bytes implement the classic multiplier-31 accumulator, useful
// when a stable, seedless, byte-order-sensitive hash is required. XXString
// and XXBytes wrap xxhash for callers that want better bucket spread on
// large tables.
package keyhash

import (
	"github.com/cespare/xxhash/v2"
)

const multiplier = 31

// String hashes s by accumulating h = h*31 + byte over its bytes,
// starting from zero, with unsigned wraparound.
//
// String("") == 0, String("a") == 97, String("ab") == 3105.
func String(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*multiplier + uint32(s[i])
	}
	return h
}

// Bytes is String for raw byte slices.
func Bytes(b []byte) uint32 {
	var h uint32
	for _, c := range b {
		h = h*multiplier + uint32(c)
	}
	return h
}

// StringHasher adapts String to the uint64 hash shape expected by
// chainmap.New.
func StringHasher(s string) uint64 {
	return uint64(String(s))
}

// XXString returns the 64-bit xxhash digest of s. Its signature already
// matches the hash shape expected by chainmap.New for string keys.
func XXString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// XXBytes returns the 64-bit xxhash digest of b.
func XXBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}
