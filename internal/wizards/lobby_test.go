package wizards_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wizards-server/internal/wizards"
)

func TestLobbyJoin(t *testing.T) {
	tests := []struct {
		name    string
		joining string
		code    error
	}{
		{name: "fresh name", joining: "Carol"},
		{name: "duplicate", joining: "Alice", code: wizards.ErrNameTaken},
		{name: "empty", joining: "", code: wizards.ErrNameInvalid},
		{name: "whitespace", joining: "   ", code: wizards.ErrNameInvalid},
		{name: "too long", joining: strings.Repeat("x", 21), code: wizards.ErrNameInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lobby := wizards.NewLobby()
			require.NoError(t, lobby.Join("Alice"))

			err := lobby.Join(tt.joining)
			if tt.code == nil {
				assert.NoError(t, err)
				assert.True(t, lobby.Has(tt.joining))
				return
			}
			assert.ErrorIs(t, err, tt.code)

			var joinErr *wizards.JoinError
			require.True(t, errors.As(err, &joinErr))
			assert.NotEmpty(t, joinErr.Reason)
		})
	}
}

func TestNameTakenReason(t *testing.T) {
	lobby := wizards.NewLobby()
	require.NoError(t, lobby.Join("Alice"))

	err := lobby.Join("Alice")

	var joinErr *wizards.JoinError
	require.ErrorAs(t, err, &joinErr)
	assert.Equal(t, `The name "Alice" is already taken`, joinErr.Reason)
}

func TestColourClaimsStayOneToOne(t *testing.T) {
	lobby := wizards.NewLobby()
	require.NoError(t, lobby.Join("Alice"))
	require.NoError(t, lobby.Join("Bob"))

	assert.True(t, lobby.ChooseColour("Alice", 0))
	assert.False(t, lobby.ChooseColour("Bob", 0), "Bob took Alice's colour")
	assert.True(t, lobby.ChooseColour("Bob", 1))

	// Changing colour frees the old one.
	assert.True(t, lobby.ChooseColour("Alice", 2))
	assert.Equal(t, map[int]string{1: "Bob", 2: "Alice"}, lobby.State().ColourToPlayer)
	assert.True(t, lobby.ChooseColour("Bob", 0))

	assert.Equal(t, map[int]string{0: "Bob", 2: "Alice"}, lobby.Colours.ByColour())
	assert.Equal(t, map[string]int{"Alice": 2, "Bob": 0}, lobby.Colours.ByName())
	assert.Equal(t, 2, lobby.Colours.Len())
}

func TestChooseColourRejects(t *testing.T) {
	lobby := wizards.NewLobby()
	require.NoError(t, lobby.Join("Alice"))

	assert.False(t, lobby.ChooseColour("Nobody", 0))
	assert.False(t, lobby.ChooseColour("Alice", -1))
	assert.False(t, lobby.ChooseColour("Alice", wizards.NumColours))
	assert.True(t, lobby.ChooseColour("Alice", 3))
	assert.True(t, lobby.ChooseColour("Alice", 3), "Re-picking your own colour is a no-op")
}

func TestLeaveReleasesColour(t *testing.T) {
	lobby := wizards.NewLobby()
	require.NoError(t, lobby.Join("Alice"))
	require.NoError(t, lobby.Join("Bob"))
	require.True(t, lobby.ChooseColour("Alice", 4))

	assert.True(t, lobby.Leave("Alice"))
	assert.False(t, lobby.Leave("Alice"))
	assert.False(t, lobby.Has("Alice"))
	assert.True(t, lobby.ChooseColour("Bob", 4))
}

func TestLobbyReady(t *testing.T) {
	lobby := wizards.NewLobby()
	assert.False(t, lobby.Ready(), "An empty lobby can't start")

	require.NoError(t, lobby.Join("Alice"))
	require.NoError(t, lobby.Join("Bob"))
	lobby.ChooseColour("Alice", 0)
	assert.False(t, lobby.Ready())

	lobby.ChooseColour("Bob", 1)
	assert.True(t, lobby.Ready())
}

func TestLobbyState(t *testing.T) {
	lobby := wizards.NewLobby()
	require.NoError(t, lobby.Join("Alice"))
	require.NoError(t, lobby.Join("Bob"))
	lobby.ChooseColour("Bob", 5)

	state := lobby.State()

	assert.Equal(t, []string{"Alice", "Bob"}, state.Players)
	assert.Equal(t, map[int]string{5: "Bob"}, state.ColourToPlayer)
}
