package model

import "time"

type RoomStatus string

const (
	RoomStatusActive RoomStatus = "active"
	RoomStatusEnded  RoomStatus = "ended"
)

// Room maps a short numeric code to the video it plays and the username that
// created it. Code, video and creator are immutable after creation; only
// Status and EndedAt change.
type Room struct {
	Code            string     `json:"code" bson:"code"`
	VideoID         string     `json:"videoId" bson:"videoId"`
	VideoFilename   string     `json:"videoFilename" bson:"videoFilename"`
	CreatorUsername string     `json:"creatorUsername" bson:"creatorUsername"`
	Status          RoomStatus `json:"status" bson:"status"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// RoomMeta is the Redis-cached view of a room, the fast path for join lookups.
type RoomMeta struct {
	VideoFilename   string     `json:"videoFilename"`
	CreatorUsername string     `json:"creatorUsername"`
	Status          RoomStatus `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
}
