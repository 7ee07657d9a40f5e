package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyPlayAll, false},
		{"play_all", PolicyPlayAll, false},
		{"keep_old", PolicyKeepOld, false},
		{"replace_with_new", PolicyReplaceWithNew, false},
		{"playNew", PolicyPlayAll, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestPolicyStringRoundTrip verifies String output parses back to the same policy
func TestPolicyStringRoundTrip(t *testing.T) {
	for _, p := range []Policy{PolicyPlayAll, PolicyKeepOld, PolicyReplaceWithNew} {
		got, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "overlay", CategoryOverlay.String())
	assert.Equal(t, "world", CategoryWorld.String())
	assert.Equal(t, "category(7)", Category(7).String())
}
