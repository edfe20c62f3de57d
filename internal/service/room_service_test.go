package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"watchtogether/internal/model"
)

type fakeRoomRepo struct {
	rooms map[string]*model.Room
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]*model.Room)}
}

func (r *fakeRoomRepo) Create(_ context.Context, room *model.Room) error {
	r.rooms[room.Code] = room
	return nil
}

func (r *fakeRoomRepo) GetByCode(_ context.Context, code string) (*model.Room, error) {
	return r.rooms[code], nil
}

func (r *fakeRoomRepo) Update(_ context.Context, room *model.Room) error {
	r.rooms[room.Code] = room
	return nil
}

type fakeVideoRepo struct {
	videos map[string]*model.Video
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{videos: make(map[string]*model.Video)}
}

func (r *fakeVideoRepo) Create(_ context.Context, video *model.Video) error {
	r.videos[video.Filename] = video
	return nil
}

func (r *fakeVideoRepo) GetByFilename(_ context.Context, filename string) (*model.Video, error) {
	return r.videos[filename], nil
}

type fakeRoomCache struct {
	metas     map[string]*model.RoomMeta
	allExists bool
}

func newFakeRoomCache() *fakeRoomCache {
	return &fakeRoomCache{metas: make(map[string]*model.RoomMeta)}
}

func (c *fakeRoomCache) SetMeta(_ context.Context, code string, meta *model.RoomMeta) error {
	c.metas[code] = meta
	return nil
}

func (c *fakeRoomCache) GetMeta(_ context.Context, code string) (*model.RoomMeta, error) {
	return c.metas[code], nil
}

func (c *fakeRoomCache) Exists(_ context.Context, code string) (bool, error) {
	if c.allExists {
		return true, nil
	}
	_, ok := c.metas[code]
	return ok, nil
}

type fakeBroadcaster struct {
	broadcasts   []string // "room/type"
	disconnected []string
}

func (b *fakeBroadcaster) BroadcastToRoom(roomCode string, msgType string, _ interface{}) {
	b.broadcasts = append(b.broadcasts, roomCode+"/"+msgType)
}

func (b *fakeBroadcaster) DisconnectRoom(roomCode string) {
	b.disconnected = append(b.disconnected, roomCode)
}

func newTestRoomService() (*RoomService, *fakeRoomRepo, *fakeRoomCache, *AuthService) {
	roomRepo := newFakeRoomRepo()
	roomCache := newFakeRoomCache()
	authSvc := NewAuthService("test-secret")
	svc := NewRoomService(roomRepo, newFakeVideoRepo(), roomCache, authSvc)
	return svc, roomRepo, roomCache, authSvc
}

func testVideo() *model.Video {
	return &model.Video{
		ID:         "v_test",
		Filename:   "movie.mp4",
		Size:       1024,
		UploadedAt: time.Now(),
	}
}

func TestCreateRoomIssuesCodeAndToken(t *testing.T) {
	svc, roomRepo, roomCache, authSvc := newTestRoomService()

	room, token, err := svc.CreateRoom(context.Background(), testVideo(), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if len(room.Code) != 4 {
		t.Fatalf("expected 4-digit code, got %q", room.Code)
	}
	if n, err := strconv.Atoi(room.Code); err != nil || n < 1000 || n > 9999 {
		t.Fatalf("code out of range: %q", room.Code)
	}
	if room.CreatorUsername != "alice" || room.VideoFilename != "movie.mp4" {
		t.Fatalf("unexpected room: %+v", room)
	}
	if room.Status != model.RoomStatusActive {
		t.Fatalf("expected active status, got %s", room.Status)
	}

	if roomRepo.rooms[room.Code] == nil {
		t.Fatal("room not persisted")
	}
	if roomCache.metas[room.Code] == nil {
		t.Fatal("room meta not cached")
	}

	claims, err := authSvc.ValidateCreatorToken(token)
	if err != nil {
		t.Fatalf("creator token invalid: %v", err)
	}
	if claims.RoomCode != room.Code || claims.Username != "alice" {
		t.Fatalf("token bound to wrong room: %+v", claims)
	}
}

func TestCreateRoomFailsWhenNoCodeAvailable(t *testing.T) {
	svc, _, roomCache, _ := newTestRoomService()
	roomCache.allExists = true

	if _, _, err := svc.CreateRoom(context.Background(), testVideo(), "alice"); err == nil {
		t.Fatal("expected code generation to fail")
	}
}

func TestResolveRoomCacheHit(t *testing.T) {
	svc, _, roomCache, _ := newTestRoomService()
	roomCache.metas["4821"] = &model.RoomMeta{
		VideoFilename:   "movie.mp4",
		CreatorUsername: "alice",
		Status:          model.RoomStatusActive,
	}

	meta, err := svc.ResolveRoom(context.Background(), "4821")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if meta.CreatorUsername != "alice" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestResolveRoomFallsBackToStoreAndWarmsCache(t *testing.T) {
	svc, roomRepo, roomCache, _ := newTestRoomService()
	roomRepo.rooms["4821"] = &model.Room{
		Code:            "4821",
		VideoFilename:   "movie.mp4",
		CreatorUsername: "alice",
		Status:          model.RoomStatusActive,
	}

	meta, err := svc.ResolveRoom(context.Background(), "4821")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if meta.VideoFilename != "movie.mp4" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if roomCache.metas["4821"] == nil {
		t.Fatal("cache not warmed after store lookup")
	}
}

func TestResolveRoomErrors(t *testing.T) {
	svc, _, roomCache, _ := newTestRoomService()

	if _, err := svc.ResolveRoom(context.Background(), "0000"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	roomCache.metas["4821"] = &model.RoomMeta{Status: model.RoomStatusEnded}
	if _, err := svc.ResolveRoom(context.Background(), "4821"); !errors.Is(err, ErrRoomEnded) {
		t.Fatalf("expected ErrRoomEnded, got %v", err)
	}
}

func TestCloseRoom(t *testing.T) {
	svc, roomRepo, roomCache, _ := newTestRoomService()
	broadcaster := &fakeBroadcaster{}
	svc.SetBroadcaster(broadcaster)

	room, _, err := svc.CreateRoom(context.Background(), testVideo(), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.CloseRoom(context.Background(), room.Code, "bob"); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}

	if err := svc.CloseRoom(context.Background(), room.Code, "alice"); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if roomRepo.rooms[room.Code].Status != model.RoomStatusEnded {
		t.Fatal("room not marked ended")
	}
	if roomCache.metas[room.Code].Status != model.RoomStatusEnded {
		t.Fatal("cached status not updated")
	}
	if len(broadcaster.broadcasts) != 1 || broadcaster.broadcasts[0] != room.Code+"/room_closed" {
		t.Fatalf("unexpected broadcasts: %v", broadcaster.broadcasts)
	}
	if len(broadcaster.disconnected) != 1 || broadcaster.disconnected[0] != room.Code {
		t.Fatalf("unexpected disconnects: %v", broadcaster.disconnected)
	}

	// Creator and video stay immutable; only status changed.
	if got := roomRepo.rooms[room.Code]; got.CreatorUsername != "alice" || got.VideoFilename != "movie.mp4" {
		t.Fatalf("immutable fields changed: %+v", got)
	}

	if err := svc.CloseRoom(context.Background(), room.Code, "alice"); !errors.Is(err, ErrRoomEnded) {
		t.Fatalf("expected ErrRoomEnded on second close, got %v", err)
	}

	if err := svc.CloseRoom(context.Background(), "0000", "alice"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestCloseRoomSurvivesExpiredCacheEntry(t *testing.T) {
	svc, roomRepo, roomCache, _ := newTestRoomService()

	room, _, err := svc.CreateRoom(context.Background(), testVideo(), "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Simulate the cache entry expiring between creation and close.
	delete(roomCache.metas, room.Code)

	if err := svc.CloseRoom(context.Background(), room.Code, "alice"); err != nil {
		t.Fatalf("close failed on cache miss: %v", err)
	}
	if roomRepo.rooms[room.Code].Status != model.RoomStatusEnded {
		t.Fatal("room not marked ended")
	}
	meta := roomCache.metas[room.Code]
	if meta == nil || meta.Status != model.RoomStatusEnded {
		t.Fatalf("expected rewritten ended meta, got %+v", meta)
	}
}
