package model

import "time"

// Video is an uploaded file stored under the upload directory.
type Video struct {
	ID          string    `json:"id" bson:"_id"`
	Filename    string    `json:"filename" bson:"filename"`
	Size        int64     `json:"size" bson:"size"`
	ContentType string    `json:"contentType" bson:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt" bson:"uploadedAt"`
}
