package transaction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateReference(t *testing.T) {
	ref := GenerateReference()

	assert.True(t, strings.HasPrefix(ref, "TXN-"))
	assert.Len(t, ref, len(referencePrefix)+referenceLength)

	for _, c := range ref[len(referencePrefix):] {
		assert.Contains(t, referenceCharset, string(c))
	}
}

func TestGenerateReferenceSpread(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := GenerateReference()
		assert.False(t, seen[ref], "duplicate reference %s in a small sample", ref)
		seen[ref] = true
	}
}
