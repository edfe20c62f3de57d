package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"watchtogether/internal/cache"
	"watchtogether/internal/model"
	"watchtogether/internal/service"
	"watchtogether/internal/transport/rest/middleware"
)

const maxUploadSize = 512 << 20 // 512 MB

// RoomHandler handles room endpoints
type RoomHandler struct {
	roomSvc   *service.RoomService
	presence  cache.PresenceCache
	uploadDir string
	wsBaseURL string
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomSvc *service.RoomService, presence cache.PresenceCache, uploadDir, wsBaseURL string) *RoomHandler {
	return &RoomHandler{
		roomSvc:   roomSvc,
		presence:  presence,
		uploadDir: uploadDir,
		wsBaseURL: wsBaseURL,
	}
}

// Create handles POST /v1/rooms. Multipart form: "video" file plus a
// "creator_username" field. Saves the file, creates the room and returns the
// room code with the creator token.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	creatorUsername := r.FormValue("creator_username")
	if creatorUsername == "" {
		writeError(w, http.StatusBadRequest, "creator_username is required")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no video file provided")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." || filename == "/" {
		writeError(w, http.StatusBadRequest, "no selected file")
		return
	}

	size, err := h.saveUpload(file, filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store video")
		return
	}

	video := &model.Video{
		ID:          "v_" + uuid.New().String()[:8],
		Filename:    filename,
		Size:        size,
		ContentType: header.Header.Get("Content-Type"),
		UploadedAt:  time.Now(),
	}

	room, token, err := h.roomSvc.CreateRoom(r.Context(), video, creatorUsername)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, &model.CreateRoomResponse{
		RoomCode:      room.Code,
		VideoFilename: room.VideoFilename,
		CreatorToken:  token,
	})
}

// Join handles POST /v1/rooms/{code}/join. Resolves the room code against
// the registry; the WebSocket layer trusts codes that went through here.
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req model.JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	meta, err := h.roomSvc.ResolveRoom(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, "room not found")
		case errors.Is(err, service.ErrRoomEnded):
			writeError(w, http.StatusGone, "room has ended")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, &model.JoinRoomResponse{
		RoomCode:        code,
		VideoFilename:   meta.VideoFilename,
		CreatorUsername: meta.CreatorUsername,
		WSURL:           h.wsURL(r),
	})
}

// Get handles GET /v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	room, err := h.roomSvc.GetRoom(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	viewers, err := h.presence.Count(r.Context(), code)
	if err != nil {
		viewers = 0
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room":        room,
		"viewerCount": viewers,
	})
}

// Close handles POST /v1/rooms/{code}/close (creator token required)
func (h *RoomHandler) Close(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	creatorUsername := middleware.GetCreatorUsername(r.Context())

	if err := h.roomSvc.CloseRoom(r.Context(), code, creatorUsername); err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, "room not found")
		case errors.Is(err, service.ErrNotCreator):
			writeError(w, http.StatusForbidden, "not room creator")
		case errors.Is(err, service.ErrRoomEnded):
			writeError(w, http.StatusGone, "room has ended")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.RoomStatusEnded)})
}

func (h *RoomHandler) saveUpload(file multipart.File, filename string) (int64, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return 0, err
	}
	dst, err := os.Create(filepath.Join(h.uploadDir, filename))
	if err != nil {
		return 0, err
	}
	defer dst.Close()
	return io.Copy(dst, file)
}

func (h *RoomHandler) wsURL(r *http.Request) string {
	if h.wsBaseURL != "" {
		return h.wsBaseURL + "/v1/ws"
	}
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}
	return scheme + "://" + r.Host + "/v1/ws"
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
