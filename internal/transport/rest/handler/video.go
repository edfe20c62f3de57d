package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"watchtogether/internal/repository"
)

// VideoHandler serves uploaded video files
type VideoHandler struct {
	videoRepo repository.VideoRepo
	uploadDir string
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(videoRepo repository.VideoRepo, uploadDir string) *VideoHandler {
	return &VideoHandler{videoRepo: videoRepo, uploadDir: uploadDir}
}

// Serve handles GET /videos/{filename}. Only files recorded at upload time
// are served; the base-name check keeps requests inside the upload dir.
func (h *VideoHandler) Serve(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(mux.Vars(r)["filename"])

	video, err := h.videoRepo.GetByFilename(r.Context(), filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if video == nil {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}

	http.ServeFile(w, r, filepath.Join(h.uploadDir, filename))
}
