package envelope

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Canonicalize produces a deterministic serialization of value: object keys
// are sorted lexicographically at every nesting level, arrays keep their
// order. This is the exact input to signing and verification, so it must be
// reproduced bit for bit by sender and receiver. It never relies on struct
// field order: the value is flattened to generic JSON first.
func Canonicalize(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(keyJSON)
			buf.WriteByte(':')
			if err := writeCanonical(buf, v[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		leaf, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(leaf)
		return nil
	}
}

// ComputeMessageID is the deterministic content hash identifying a chat
// message: SHA-256 over the pipe-joined fields. Retransmission or
// independent computation by sender and receiver always yields the same id.
func ComputeMessageID(conversationID, senderID string, nonce, ciphertext []byte, timestamp int64) string {
	joined := strings.Join([]string{
		conversationID,
		senderID,
		base64.StdEncoding.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(ciphertext),
		strconv.FormatInt(timestamp, 10),
	}, "|")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// ComputeTombstoneID identifies a tombstone envelope. Tombstones carry no
// nonce or ciphertext, so the target message id takes their place in the
// hashed concatenation.
func ComputeTombstoneID(conversationID, senderID, targetMessageID string, timestamp int64) string {
	joined := strings.Join([]string{
		conversationID,
		senderID,
		targetMessageID,
		strconv.FormatInt(timestamp, 10),
	}, "|")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}
