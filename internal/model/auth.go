package model

import "github.com/golang-jwt/jwt/v5"

// CreatorClaims are JWT claims for the room-scoped creator token issued at
// room creation. The token is the credential for transport control; viewer
// usernames stay self-declared.
type CreatorClaims struct {
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// CreateRoomResponse is returned after a successful room creation.
type CreateRoomResponse struct {
	RoomCode      string `json:"roomCode"`
	VideoFilename string `json:"videoFilename"`
	CreatorToken  string `json:"creatorToken"`
}

// JoinRoomRequest is the request body for joining a room by code.
type JoinRoomRequest struct {
	Username string `json:"username"`
}

// JoinRoomResponse carries everything a client needs to start watching.
type JoinRoomResponse struct {
	RoomCode        string `json:"roomCode"`
	VideoFilename   string `json:"videoFilename"`
	CreatorUsername string `json:"creatorUsername"`
	WSURL           string `json:"wsUrl"`
}
