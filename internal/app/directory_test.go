package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voicehub/internal/domain"
)

func TestDirectory_FixedRoomSet(t *testing.T) {
	req := require.New(t)
	dir := NewDirectory([]domain.RoomName{"General", "Games"})

	req.True(dir.Exists("General"))
	req.True(dir.Exists("Games"))
	req.False(dir.Exists("Music"))
	req.ElementsMatch([]domain.RoomName{"General", "Games"}, dir.Names())
}

func TestDirectory_SetSemantics(t *testing.T) {
	req := require.New(t)
	dir := NewDirectory(domain.DefaultRooms)

	dir.Add("General", "alice")
	dir.Add("General", "alice")
	req.Equal([]string{"alice"}, dir.Members("General"))

	// Discarding an absent name is a no-op, not an error
	dir.Discard("General", "bob")
	req.Equal([]string{"alice"}, dir.Members("General"))

	dir.Discard("General", "alice")
	req.Empty(dir.Members("General"))
}

func TestDirectory_UnknownRoomIsInert(t *testing.T) {
	req := require.New(t)
	dir := NewDirectory(domain.DefaultRooms)

	dir.Add("Nowhere", "alice")
	req.Nil(dir.Members("Nowhere"))
	req.False(dir.Exists("Nowhere"))
}

func TestDirectory_DiscardEverywhere(t *testing.T) {
	req := require.New(t)
	dir := NewDirectory(domain.DefaultRooms)
	dir.Add("General", "alice")
	dir.Add("Games", "alice")
	dir.Add("Games", "bob")

	dir.DiscardEverywhere("alice")

	req.Empty(dir.Members("General"))
	req.Equal([]string{"bob"}, dir.Members("Games"))
}
