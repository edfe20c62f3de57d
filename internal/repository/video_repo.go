package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"watchtogether/internal/model"
)

type VideoRepo interface {
	Create(ctx context.Context, video *model.Video) error
	GetByFilename(ctx context.Context, filename string) (*model.Video, error)
}

type videoRepo struct {
	collection *mongo.Collection
}

func NewVideoRepo(db *mongo.Database) VideoRepo {
	return &videoRepo{
		collection: db.Collection("videos"),
	}
}

func (r *videoRepo) Create(ctx context.Context, video *model.Video) error {
	_, err := r.collection.InsertOne(ctx, video)
	return err
}

func (r *videoRepo) GetByFilename(ctx context.Context, filename string) (*model.Video, error) {
	var video model.Video
	err := r.collection.FindOne(ctx, bson.M{"filename": filename}).Decode(&video)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &video, nil
}
