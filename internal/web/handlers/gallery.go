package handlers

import (
	"log"
	"net/http"

	"github.com/classtrack/classtrack/internal/gallery"
	"github.com/classtrack/classtrack/internal/recognize"
)

// GalleryHandler hot-swaps the matcher's reference gallery.
type GalleryHandler struct {
	path    string
	matcher recognize.Matcher
}

// NewGalleryHandler creates a gallery reload handler for the artifact at path.
func NewGalleryHandler(path string, matcher recognize.Matcher) *GalleryHandler {
	return &GalleryHandler{path: path, matcher: matcher}
}

// ReloadResponse confirms the swapped gallery.
type ReloadResponse struct {
	Profile string `json:"profile"`
	Entries int    `json:"entries"`
}

// Reload re-reads the gallery artifact and swaps the matcher's entries.
// On failure the matcher keeps serving the previous gallery.
func (h *GalleryHandler) Reload(w http.ResponseWriter, r *http.Request) {
	artifact, err := gallery.Load(h.path)
	if err != nil {
		log.Printf("reloading gallery: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load gallery artifact")
		return
	}

	if err := h.matcher.Reload(artifact.Entries); err != nil {
		log.Printf("swapping gallery: %v", err)
		respondError(w, http.StatusUnprocessableEntity, "gallery artifact does not match the active profile")
		return
	}

	log.Printf("gallery reloaded: %d entries (profile %s)", len(artifact.Entries), artifact.Profile)
	respondJSON(w, http.StatusOK, ReloadResponse{
		Profile: artifact.Profile,
		Entries: h.matcher.Len(),
	})
}
