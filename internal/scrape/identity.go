package scrape

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io"

	"gigscout-engine/internal/domain"
)

// Identity is the in-run fingerprint of a posting.
type Identity [sha256.Size]byte

func (id Identity) String() string { return hex.EncodeToString(id[:]) }

// Fingerprint hashes (platform, title, link). Each field is length-prefixed
// so no two distinct tuples share an encoding.
func Fingerprint(p domain.RawPosting) Identity {
	h := sha256.New()
	writeField(h, string(p.Platform))
	writeField(h, p.Title)
	writeField(h, p.Link)

	var id Identity
	h.Sum(id[:0])
	return id
}

func writeField(h hash.Hash, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	_, _ = h.Write(n[:])
	_, _ = io.WriteString(h, s)
}

// Deduplicate keeps the first posting of every identity, preserving order.
func Deduplicate(postings []domain.RawPosting) []domain.RawPosting {
	seen := make(map[Identity]struct{}, len(postings))
	out := make([]domain.RawPosting, 0, len(postings))
	for _, p := range postings {
		id := Fingerprint(p)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, p)
	}
	return out
}
