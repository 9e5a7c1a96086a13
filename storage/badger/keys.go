package badger

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// Key prefixes for different data types
const (
	projectPrefix             = "prorec"
	projectOwnerPrefix        = "proown"
	documentPrefix            = "docrec"
	documentProjectPrefix     = "docpro"
	conversationPrefix        = "cvsrec"
	conversationProjectPrefix = "cvspro"
	conversationUserPrefix    = "cvsusr"
	messagePrefix             = "msgrec"
	messageConvPrefix         = "msgcvs"
	referencePrefix           = "refrec"
	referenceMessagePrefix    = "refmsg"
)

// makeEntityKey generates a primary key: prefix:uuid.
func makeEntityKey(prefix string, id uuid.UUID) []byte {
	buf := make([]byte, len(prefix)+1+16)
	offset := copy(buf, prefix)
	buf[offset] = ':'
	copy(buf[offset+1:], id[:])
	return buf
}

// makeScopeKey generates a composite index key: prefix:scope:id.
// Both UUIDs are written raw so all entries under one scope share a
// 23-byte prefix and iterate together.
func makeScopeKey(prefix string, scope, id uuid.UUID) []byte {
	buf := make([]byte, len(prefix)+1+32)
	offset := copy(buf, prefix)
	buf[offset] = ':'
	offset++
	offset += copy(buf[offset:], scope[:])
	copy(buf[offset:], id[:])
	return buf
}

// makePartialScopeKey generates the iteration prefix for a scope.
func makePartialScopeKey(prefix string, scope uuid.UUID) []byte {
	buf := make([]byte, len(prefix)+1+16)
	offset := copy(buf, prefix)
	buf[offset] = ':'
	copy(buf[offset+1:], scope[:])
	return buf
}

// makeMessageConvKey generates a composite key for the conversation
// message index. Format: prefix:conversation:timestamp:id
// The timestamp is written BigEndian so lexicographic key order is
// chronological order.
func makeMessageConvKey(conversationID uuid.UUID, timestamp time.Time, id uuid.UUID) []byte {
	buf := make([]byte, len(messageConvPrefix)+1+16+8+16)
	offset := copy(buf, messageConvPrefix)
	buf[offset] = ':'
	offset++
	offset += copy(buf[offset:], conversationID[:])
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	copy(buf[offset:], id[:])
	return buf
}
