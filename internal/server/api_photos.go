package server

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"photocast/internal/photos"
)

// handlePhoto serves one photo from the folder of the player's active
// session. The resolved target must stay inside that folder; anything
// that escapes it, via dot-dots or symlinks, is refused.
func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	rel := wildcardPath(r)
	if playerID == "" || rel == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	folder, ok := s.engine.SessionFolder(playerID)
	if !ok {
		writeError(w, http.StatusNotFound, "no active slideshow for player")
		return
	}
	s.serveContained(w, r, folder, rel)
}

// wildcardPath returns the decoded tail of a /* route.
func wildcardPath(r *http.Request) string {
	rel := chi.URLParam(r, "*")
	// The wildcard keeps percent-escapes when the request path had any.
	if u, err := url.PathUnescape(rel); err == nil {
		rel = u
	}
	return rel
}

// serveContained serves folder/rel only when the resolved target stays
// inside folder. Dot-dot and symlink escapes get 403, everything else that
// cannot be served as an image gets 404.
func (s *Server) serveContained(w http.ResponseWriter, r *http.Request, folder, rel string) {
	full := filepath.Join(folder, filepath.FromSlash(rel))
	if sub, err := filepath.Rel(folder, full); err != nil || sub == ".." || strings.HasPrefix(sub, ".."+string(filepath.Separator)) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	resolvedRoot, err := filepath.EvalSymlinks(folder)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if resolved != resolvedRoot && !strings.HasPrefix(resolved, resolvedRoot+string(filepath.Separator)) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() || !photos.IsImage(resolved) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	http.ServeFile(w, r, resolved)
}
