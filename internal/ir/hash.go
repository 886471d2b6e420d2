package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix leaves room for a
// future algorithm change.
const (
	DomainSpec = "rendezvous/spec/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null byte keeps
// the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SpecHash computes a content hash of a join spec. Two specs that differ
// only in Unicode normalisation of their names hash the same. Recorded with
// every stored coordinator so a trace can be matched to the spec that
// produced it.
func SpecHash(spec JoinSpec) (string, error) {
	sources := make(IRArray, len(spec.Sources))
	for i, s := range spec.Sources {
		sources[i] = IRString(s.Name)
	}

	plans := make(IRArray, len(spec.Plans))
	for i, p := range spec.Plans {
		pattern := make(IRArray, len(p.Pattern))
		for j, name := range p.Pattern {
			pattern[j] = IRString(name)
		}
		plans[i] = IRObject{
			"id":      IRString(p.ID),
			"pattern": pattern,
			"op":      IRString(p.Reaction.Op),
			"async":   IRBool(p.Reaction.Async),
			"message": IRString(p.Reaction.Message),
		}
	}

	obj := IRObject{
		"name":    IRString(spec.Name),
		"sources": sources,
		"plans":   plans,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SpecHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSpec, canonical), nil
}

// MustSpecHash is like SpecHash but panics on error.
// Use only in tests or when the spec is known to be valid.
func MustSpecHash(spec JoinSpec) string {
	h, err := SpecHash(spec)
	if err != nil {
		panic(err)
	}
	return h
}
