package server

import (
	"encoding/json"
	"net/http"

	"photocast/internal/models"
)

// viewerPage is the browser slideshow: it polls the current-photo endpoint
// and swaps the image in place.
const viewerPage = `<!DOCTYPE html>
<html>
<head>
<title>PhotoCast</title>
<style>
  body { margin: 0; background: #000; }
  img { width: 100vw; height: 100vh; object-fit: contain; }
</style>
</head>
<body>
<img id="photo" alt="">
<script>
async function refresh() {
  try {
    const res = await fetch('/web/current');
    if (res.ok) {
      const cur = await res.json();
      const img = document.getElementById('photo');
      if (cur.url && img.src !== cur.url) img.src = cur.url;
    }
  } catch (e) {}
}
refresh();
setInterval(refresh, 1000);
</script>
</body>
</html>
`

func (s *Server) handleWebViewer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(viewerPage))
}

func (s *Server) handleWebStart(w http.ResponseWriter, r *http.Request) {
	var req models.WebShowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.engine.StartWebShow(r.Context(), req); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleWebStop(w http.ResponseWriter, r *http.Request) {
	s.engine.StopWebShow()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// handleWebCurrent reports the photo the web slideshow is showing; without
// one it falls back to mirroring the first active cast session.
func (s *Server) handleWebCurrent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if url, ok := s.engine.WebCurrent(); ok {
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
		return
	}
	if url, ok := s.engine.CurrentPhotoURL(); ok {
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
		return
	}
	writeError(w, http.StatusNotFound, "no active slideshow")
}

// handleWebFile serves photo bytes for the web slideshow's own folder,
// under the same containment rule as the player photo route.
func (s *Server) handleWebFile(w http.ResponseWriter, r *http.Request) {
	rel := wildcardPath(r)
	if rel == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	folder, ok := s.engine.WebFolder()
	if !ok {
		writeError(w, http.StatusNotFound, "no web slideshow running")
		return
	}
	s.serveContained(w, r, folder, rel)
}
