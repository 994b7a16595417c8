package auth

import (
	"testing"

	"chat_core_server/internal/config"

	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Resolve(t *testing.T) {
	r, err := NewRegistry([]config.Participant{
		{Name: "Alice", Token: "T1"},
		{Name: "Bob", Token: "T2"},
	})
	require.NoError(t, err)

	name, ok := r.Resolve("T1")
	require.True(t, ok)
	require.Equal(t, "Alice", name)

	_, ok = r.Resolve("nope")
	require.False(t, ok)
	_, ok = r.Resolve("")
	require.False(t, ok)

	require.Equal(t, []string{"Alice", "Bob"}, r.Names())
	require.True(t, r.Has("Bob"))
	require.False(t, r.Has("Mallory"))
}

func TestNewRegistry_ConfigErrors(t *testing.T) {
	cases := map[string][]config.Participant{
		"empty list":     nil,
		"empty token":    {{Name: "Alice", Token: ""}},
		"empty name":     {{Name: "", Token: "T1"}},
		"duplicate tok":  {{Name: "Alice", Token: "T1"}, {Name: "Bob", Token: "T1"}},
		"duplicate name": {{Name: "Alice", Token: "T1"}, {Name: "Alice", Token: "T2"}},
	}
	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegistry(entries)
			require.Error(t, err)
		})
	}
}

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", BearerToken("Bearer abc"))
	require.Equal(t, "abc", BearerToken("bearer  abc "))
	require.Equal(t, "", BearerToken("Basic abc"))
	require.Equal(t, "", BearerToken("abc"))
	require.Equal(t, "", BearerToken(""))
}
