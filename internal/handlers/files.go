package handlers

import (
	"fmt"
	"hash/fnv"
	"html"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/snapgram/internal/backend"
	"github.com/petermazzocco/snapgram/internal/storage"
)

// FilePreview serves the rendered preview addressed by a preview URL.
func (h *Handler) FilePreview(w http.ResponseWriter, r *http.Request) {
	opts, err := storage.ParsePreviewOptions(r.URL.Query(), backend.DefaultPreview)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := h.files.Preview(r.Context(), chi.URLParam(r, "id"), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(data)
}

var avatarColors = []string{"#877EFF", "#FF5A5A", "#0095F6", "#24A148", "#F5A623", "#C13584"}

// Initials serves an SVG avatar showing the initials of ?name=.
func (h *Handler) Initials(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	hash := fnv.New32a()
	hash.Write([]byte(name))
	color := avatarColors[hash.Sum32()%uint32(len(avatarColors))]

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="128" height="128" viewBox="0 0 128 128">`+
		`<rect width="128" height="128" fill="%s"/>`+
		`<text x="50%%" y="50%%" dy=".35em" text-anchor="middle" fill="#FFFFFF" font-family="Inter, sans-serif" font-size="52">%s</text>`+
		`</svg>`, color, html.EscapeString(initials(name)))
}

func initials(name string) string {
	var letters []rune
	for _, word := range strings.Fields(name) {
		for _, c := range word {
			if unicode.IsLetter(c) || unicode.IsDigit(c) {
				letters = append(letters, unicode.ToUpper(c))
				break
			}
		}
		if len(letters) == 2 {
			break
		}
	}
	if len(letters) == 0 {
		return "?"
	}
	return string(letters)
}
