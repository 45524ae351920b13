package keygen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKey(t *testing.T) {
	tests := map[string]struct {
		length int
		expErr bool
	}{
		"minimum length": {length: MinAPIKeyLength},
		"long key":       {length: 64},
		"too short":      {length: 8, expErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			key, err := GenerateAPIKey(test.length)
			if test.expErr {
				assert.Error(err)
				return
			}
			require.NoError(t, err)
			assert.Len(key, test.length)
			for _, r := range key {
				assert.True(strings.ContainsRune(charset, r))
			}
		})
	}
}

func TestGenerateAPIKeyIsRandom(t *testing.T) {
	a, err := GenerateAPIKey(32)
	require.NoError(t, err)
	b, err := GenerateAPIKey(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
