package inbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySeen(t *testing.T) {
	m := NewMemory(2)
	ctx := context.Background()

	for _, tc := range []struct {
		id   string
		want bool
	}{
		{"a", false},
		{"a", true},
		{"b", false},
		{"c", false},
		{"a", false},
		{"c", true},
	} {
		seen, err := m.Seen(ctx, tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.want, seen, tc.id)
	}
}
