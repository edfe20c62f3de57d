package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"watchtogether/internal/cache"
	"watchtogether/internal/model"
	"watchtogether/internal/repository"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomEnded    = errors.New("room has ended")
	ErrNotCreator   = errors.New("unauthorized: not room creator")
)

// RoomService handles room lifecycle: creation against an uploaded video,
// code resolution for joins, and creator-gated close.
type RoomService struct {
	roomRepo    repository.RoomRepo
	videoRepo   repository.VideoRepo
	roomCache   cache.RoomCache
	authSvc     *AuthService
	broadcaster Broadcaster
}

// NewRoomService creates a new room service
func NewRoomService(
	roomRepo repository.RoomRepo,
	videoRepo repository.VideoRepo,
	roomCache cache.RoomCache,
	authSvc *AuthService,
) *RoomService {
	return &RoomService{
		roomRepo:  roomRepo,
		videoRepo: videoRepo,
		roomCache: roomCache,
		authSvc:   authSvc,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *RoomService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateRoom records an uploaded video and creates a room mapped to it.
// Returns the room and the creator token for it.
func (s *RoomService) CreateRoom(ctx context.Context, video *model.Video, creatorUsername string) (*model.Room, string, error) {
	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, "", fmt.Errorf("failed to save video: %w", err)
	}

	code, err := s.generateRoomCode(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate room code: %w", err)
	}

	room := &model.Room{
		Code:            code,
		VideoID:         video.ID,
		VideoFilename:   video.Filename,
		CreatorUsername: creatorUsername,
		Status:          model.RoomStatusActive,
		CreatedAt:       time.Now(),
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, "", fmt.Errorf("failed to create room: %w", err)
	}

	meta := &model.RoomMeta{
		VideoFilename:   room.VideoFilename,
		CreatorUsername: room.CreatorUsername,
		Status:          room.Status,
		CreatedAt:       room.CreatedAt,
	}
	if err := s.roomCache.SetMeta(ctx, code, meta); err != nil {
		return nil, "", fmt.Errorf("failed to cache room: %w", err)
	}

	token, err := s.authSvc.GenerateCreatorToken(code, creatorUsername)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate creator token: %w", err)
	}

	return room, token, nil
}

// ResolveRoom resolves a room code for a join: cache first, Mongo fallback
// (re-warming the cache on a hit). Returns ErrRoomNotFound / ErrRoomEnded.
func (s *RoomService) ResolveRoom(ctx context.Context, code string) (*model.RoomMeta, error) {
	meta, err := s.roomCache.GetMeta(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room meta: %w", err)
	}
	if meta == nil {
		room, err := s.roomRepo.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to get room: %w", err)
		}
		if room == nil {
			return nil, ErrRoomNotFound
		}
		meta = &model.RoomMeta{
			VideoFilename:   room.VideoFilename,
			CreatorUsername: room.CreatorUsername,
			Status:          room.Status,
			CreatedAt:       room.CreatedAt,
		}
		if err := s.roomCache.SetMeta(ctx, code, meta); err != nil {
			return nil, fmt.Errorf("failed to cache room: %w", err)
		}
	}
	if meta.Status == model.RoomStatusEnded {
		return nil, ErrRoomEnded
	}
	return meta, nil
}

// GetRoom retrieves a room by code from the primary store.
func (s *RoomService) GetRoom(ctx context.Context, code string) (*model.Room, error) {
	return s.roomRepo.GetByCode(ctx, code)
}

// CloseRoom marks the room ended, tells every connected viewer and drops
// their connections. Only the creator (validated upstream by token) may call.
func (s *RoomService) CloseRoom(ctx context.Context, code, creatorUsername string) error {
	room, err := s.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if room.CreatorUsername != creatorUsername {
		return ErrNotCreator
	}
	if room.Status == model.RoomStatusEnded {
		return ErrRoomEnded
	}

	now := time.Now()
	room.Status = model.RoomStatusEnded
	room.EndedAt = &now

	if err := s.roomRepo.Update(ctx, room); err != nil {
		return err
	}
	// Rewrite the full meta rather than patching in place: the cache entry
	// may have expired, and a miss must not fail the close after the
	// primary store already ended the room.
	meta := &model.RoomMeta{
		VideoFilename:   room.VideoFilename,
		CreatorUsername: room.CreatorUsername,
		Status:          room.Status,
		CreatedAt:       room.CreatedAt,
	}
	if err := s.roomCache.SetMeta(ctx, code, meta); err != nil {
		return err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRoom(code, "room_closed", map[string]string{"room_code": code})
		s.broadcaster.DisconnectRoom(code)
	}
	return nil
}

// generateRoomCode creates a unique 4-digit numeric code (1000-9999).
func (s *RoomService) generateRoomCode(ctx context.Context) (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		n, err := rand.Int(rand.Reader, big.NewInt(9000))
		if err != nil {
			return "", err
		}
		code := fmt.Sprintf("%d", n.Int64()+1000)

		// Check uniqueness against both cache and primary store
		exists, err := s.roomCache.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		room, err := s.roomRepo.GetByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if room == nil {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique room code")
}
