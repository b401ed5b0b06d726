package domain

type RoomName string

// DefaultRoom is where a join without an explicit room lands.
const DefaultRoom RoomName = "General"

// DefaultRooms seeds the directory when config provides no room list.
var DefaultRooms = []RoomName{"General", "Games", "Music"}
