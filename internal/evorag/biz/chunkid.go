package biz

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// ContentHash returns the hex sha256 digest of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// DeriveChunkID returns a name-based UUID for the chunk at chunkIndex of
// source with the given text. The same inputs always yield the same id.
func DeriveChunkID(source string, chunkIndex int, text string) string {
	ns := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(source))
	name := fmt.Sprintf("%d::%s", chunkIndex, ContentHash(text))
	return uuid.NewSHA1(ns, []byte(name)).String()
}
