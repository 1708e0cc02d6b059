package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smritilabs/chatbot-backend/internal/config"
	"github.com/smritilabs/chatbot-backend/internal/extract"
	"github.com/smritilabs/chatbot-backend/internal/store"
)

// UploadHandler receives a multipart document, extracts its text, and stores
// it with its tag set. The tag-overlap invariant is enforced by the store.
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	if err := r.ParseMultipartForm(config.AppConfig.MaxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	tags := splitTags(r.FormValue("tags"))
	if len(tags) == 0 {
		http.Error(w, "At least one tag is required", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, config.AppConfig.MaxUploadBytes))
	if err != nil {
		log.Printf("Error reading upload %s for user %d: %v", header.Filename, user.ID, err)
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	parsedContent, err := extract.Text(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			http.Error(w, "Unsupported file type for parsing", http.StatusBadRequest)
			return
		}
		log.Printf("Error parsing upload %s for user %d: %v", header.Filename, user.ID, err)
		http.Error(w, "Failed to parse file", http.StatusInternalServerError)
		return
	}

	storedName := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(header.Filename))
	storedPath := filepath.Join(config.AppConfig.UploadDir, storedName)
	if err := os.MkdirAll(config.AppConfig.UploadDir, 0o755); err != nil {
		log.Printf("Error creating upload dir: %v", err)
		http.Error(w, "Failed to store file", http.StatusInternalServerError)
		return
	}
	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		log.Printf("Error writing upload %s: %v", storedPath, err)
		http.Error(w, "Failed to store file", http.StatusInternalServerError)
		return
	}

	upload := &store.CompanyUpload{
		UserID:        user.ID,
		Description:   r.FormValue("description"),
		Category:      r.FormValue("category"),
		Filename:      storedName,
		Filepath:      storedPath,
		Tags:          tags,
		ParsedContent: parsedContent,
	}

	if err := h.store.CreateUpload(upload); err != nil {
		if errors.Is(err, store.ErrTagOverlap) {
			http.Error(w, "Tags overlap with an existing upload: "+err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Error storing upload for user %d: %v", user.ID, err)
		http.Error(w, "Failed to upload or parse file", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"message": "File uploaded and parsed successfully",
		"upload":  upload,
	})
}

func (h *APIHandler) ListUploadsHandler(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	uploads, err := h.store.GetUploadsByUserID(user.ID)
	if err != nil {
		log.Printf("Error listing uploads for user %d: %v", user.ID, err)
		http.Error(w, "Failed to list uploads", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"files": uploads})
}

func (h *APIHandler) SearchUploadsHandler(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	keyword := r.URL.Query().Get("keyword")
	category := r.URL.Query().Get("category")

	uploads, err := h.store.SearchUploads(user.ID, keyword, category)
	if err != nil {
		log.Printf("Error searching uploads for user %d: %v", user.ID, err)
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"files": uploads})
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
