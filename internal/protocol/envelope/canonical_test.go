package envelope

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalizeSortsKeysAtEveryLevel(t *testing.T) {
	value := map[string]any{
		"zebra": 1,
		"alpha": map[string]any{
			"delta": []any{"b", "a"},
			"beta":  2,
		},
	}

	out, err := Canonicalize(value)
	require.NoError(t, err)
	require.Equal(t, `{"alpha":{"beta":2,"delta":["b","a"]},"zebra":1}`, string(out))
}

func TestCanonicalizeIndependentOfFieldOrder(t *testing.T) {
	// two struct types with the same fields declared in opposite order must
	// canonicalize to identical bytes
	type ab struct {
		A string `json:"a"`
		B int    `json:"b"`
	}
	type ba struct {
		B int    `json:"b"`
		A string `json:"a"`
	}

	first, err := Canonicalize(ab{A: "x", B: 7})
	require.NoError(t, err)
	second, err := Canonicalize(ba{A: "x", B: 7})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCanonicalizePreservesArrayOrder(t *testing.T) {
	out, err := Canonicalize([]any{3, 1, 2})
	require.NoError(t, err)
	require.Equal(t, `[3,1,2]`, string(out))
}

func TestComputeMessageIDIsPure(t *testing.T) {
	nonce := []byte{1, 2, 3}
	ciphertext := []byte{4, 5, 6}

	id1 := ComputeMessageID("conv", "sender", nonce, ciphertext, 1000)
	id2 := ComputeMessageID("conv", "sender", nonce, ciphertext, 1000)
	require.Equal(t, id1, id2)
}

func TestComputeMessageIDSensitivity(t *testing.T) {
	nonce := []byte{1, 2, 3}
	ciphertext := []byte{4, 5, 6}
	base := ComputeMessageID("conv", "sender", nonce, ciphertext, 1000)

	require.NotEqual(t, base, ComputeMessageID("conv", "sender", nonce, ciphertext, 1001))
	require.NotEqual(t, base, ComputeMessageID("conv", "sender", nonce, []byte{4, 5, 7}, 1000))
	require.NotEqual(t, base, ComputeMessageID("conv", "other", nonce, ciphertext, 1000))
	require.NotEqual(t, base, ComputeMessageID("other", "sender", nonce, ciphertext, 1000))
}
