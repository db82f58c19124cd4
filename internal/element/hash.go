package element

import "hash/fnv"

// ContentHash returns the 64-bit FNV-1a hash of text's UTF-8 bytes, used by
// clients to cheaply detect whether the screen changed since a prior
// snapshot (§4.5, §8). hash/fnv is the standard library's own
// implementation of this exact algorithm; there is no ecosystem library
// that does FNV-1a better, so this is the one hashing call site in the
// daemon that reaches for the stdlib instead of a third-party package.
func ContentHash(text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	return h.Sum64()
}
