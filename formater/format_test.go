package formater

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	files := map[string]string{"client.ts": "a", "common.ts": "b"}

	out, err := Format(context.Background(), "zodios", files, "tr", "a-z", "A-Z")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"client.ts": "A", "common.ts": "B"}, out)

	_, err = Format(context.Background(), "swift", files)
	assert.EqualError(t, err, `unsupported client "swift"`)
}
