package lsp

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// topLevelID computes sha256(specifier_bytes || name_bytes) for a top-level
// test, describe, or it block.
func topLevelID(specifier, name string) string {
	h := sha256.New()
	h.Write([]byte(specifier))
	h.Write([]byte(name))
	return hex.EncodeToString(h.Sum(nil))
}

// stepID computes sha256(parent_id || level_bytes || name_bytes) for a
// ctx.step invocation.
func stepID(parentID string, level int, name string) string {
	levelBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(levelBytes, uint64(level))

	h := sha256.New()
	h.Write([]byte(parentID))
	h.Write(levelBytes)
	h.Write([]byte(name))
	return hex.EncodeToString(h.Sum(nil))
}
