// Package fingerprint produces deterministic digests of incoming records
// so unchanged feed observations can be skipped.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Record computes a deterministic fingerprint over the comparable fields
// of an incoming record. Two observations with the same fingerprint carry
// identical data, so re-resolving the second one cannot change the
// outcome.
func Record(record models.IncomingRecord) string {
	var b strings.Builder
	b.WriteString(string(record.Source))
	b.WriteByte(0)
	b.WriteString(record.ExternalSKU)
	b.WriteByte(0)
	b.WriteString(record.Barcode)
	b.WriteByte(0)
	b.WriteString(record.Name)
	b.WriteByte(0)
	b.WriteString(record.Brand)
	b.WriteByte(0)
	b.WriteString(record.Category)
	b.WriteByte(0)

	// Attribute order must not affect the digest
	keys := make([]string, 0, len(record.Attributes))
	for k := range record.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(0)
		b.WriteString(record.Attributes[k])
		b.WriteByte(0)
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

// HasChanged compares two fingerprints
func HasChanged(oldFingerprint, newFingerprint string) bool {
	return oldFingerprint != newFingerprint
}
