package domain

// RoomID names a room. It is chosen by the editor and passed through as is.
type RoomID string

// RoomInfo is a read-only view of a room for APIs.
type RoomInfo struct {
	ID          RoomID `json:"id"`
	MemberCount int    `json:"member_count"`
}
