package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tagcask/tagcask/internal/catalog"
	"github.com/tagcask/tagcask/internal/config"
	"github.com/tagcask/tagcask/internal/constants"
	"github.com/tagcask/tagcask/internal/index"
	"github.com/tagcask/tagcask/internal/query"
	"github.com/tagcask/tagcask/internal/stats"
)

// Server holds the application state
type Server struct {
	cat        catalog.Catalog
	config     *config.Config
	statsCache *stats.Cache
}

// NewServer creates a new server instance
func NewServer(cat catalog.Catalog, cfg *config.Config) *Server {
	cacheTTL := cfg.StatsCacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Second
	}

	return &Server{
		cat:        cat,
		config:     cfg,
		statsCache: stats.NewCache(cacheTTL),
	}
}

// HandleHealth reports liveness and index reachability
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"index": "ok"}
	status := "ok"
	if err := s.cat.Ping(); err != nil {
		checks["index"] = err.Error()
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  status,
		Version: constants.Version,
		Checks:  checks,
	})
}

// HandleUpload ingests a multipart upload: one "file" part plus
// "tags" (space separated), optional "notes" and "transcript" fields.
func (s *Server) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MultipartMemoryLimit); err != nil {
		respondError(w, http.StatusBadRequest, "malformed multipart body", "missing_file")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file part", "missing_file")
		return
	}
	defer part.Close()

	tags := splitTags(r.FormValue("tags"))
	if len(tags) == 0 {
		respondError(w, http.StatusBadRequest, "at least one tag is required", "missing_tags")
		return
	}

	name := filepath.Base(header.Filename)
	if err := ValidateUploadName(name); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "missing_file")
		return
	}

	// Spool under the original name so the display name survives.
	spool, err := os.MkdirTemp("", "tagcask-upload-")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to spool upload", "upload_failed")
		return
	}
	defer os.RemoveAll(spool)

	srcPath := filepath.Join(spool, name)
	dst, err := os.Create(srcPath)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to spool upload", "upload_failed")
		return
	}
	if _, err := io.Copy(dst, part); err != nil {
		dst.Close()
		respondError(w, http.StatusInternalServerError, "failed to spool upload", "upload_failed")
		return
	}
	dst.Close()

	file, err := s.cat.Upload(srcPath, tags, r.FormValue("notes"), r.FormValue("transcript"))
	if err != nil {
		var verr *query.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Error(), "invalid_tag")
			return
		}
		log.Printf("upload failed: %v", err)
		respondError(w, http.StatusInternalServerError, "upload failed", "upload_failed")
		return
	}

	s.statsCache.Invalidate()
	respondJSON(w, http.StatusCreated, fileResponse(file))
}

// HandleFile returns the record for a hash
func (s *Server) HandleFile(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if err := ValidateHash(hash); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid_hash")
		return
	}

	file, err := s.cat.Lookup(hash)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			respondError(w, http.StatusNotFound, "file not found", "file_not_found")
			return
		}
		log.Printf("lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "lookup failed", "")
		return
	}

	respondJSON(w, http.StatusOK, fileResponse(file))
}

// updateRequest is the body of PUT /api/files/{hash}
type updateRequest struct {
	Tags       []string `json:"tags"`
	Notes      *string  `json:"notes"`
	Transcript *string  `json:"transcript"`
}

// HandleUpdate rewrites a file's tags, notes and transcript. An empty
// tag list deletes the file.
func (s *Server) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if err := ValidateHash(hash); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid_hash")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body", "invalid_tag")
		return
	}
	for _, tag := range req.Tags {
		if err := query.ValidateTagName(tag); err != nil {
			respondError(w, http.StatusBadRequest, err.Error(), "invalid_tag")
			return
		}
	}

	file, err := s.cat.Lookup(hash)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			respondError(w, http.StatusNotFound, "file not found", "file_not_found")
			return
		}
		log.Printf("lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "lookup failed", "")
		return
	}

	updated := *file
	updated.Tags = make(map[string]bool, len(req.Tags))
	for _, tag := range req.Tags {
		updated.Tags[tag] = true
	}
	if req.Notes != nil {
		updated.Notes = *req.Notes
	}
	if req.Transcript != nil {
		updated.Transcript = *req.Transcript
	}

	if err := s.cat.Update(&updated); err != nil {
		log.Printf("update failed: %v", err)
		respondError(w, http.StatusInternalServerError, "update failed", "")
		return
	}

	s.statsCache.Invalidate()
	if len(req.Tags) == 0 {
		respondJSON(w, http.StatusOK, DeleteResponse{Status: "deleted", Hash: hash})
		return
	}
	respondJSON(w, http.StatusOK, fileResponse(&updated))
}

// HandleDelete removes a file and its stored content
func (s *Server) HandleDelete(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if err := ValidateHash(hash); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid_hash")
		return
	}

	if err := s.cat.Remove(hash); err != nil {
		if errors.Is(err, index.ErrNotFound) {
			respondError(w, http.StatusNotFound, "file not found", "file_not_found")
			return
		}
		log.Printf("remove failed: %v", err)
		respondError(w, http.StatusInternalServerError, "remove failed", "")
		return
	}

	s.statsCache.Invalidate()
	respondJSON(w, http.StatusOK, DeleteResponse{Status: "deleted", Hash: hash})
}

// HandleSearch evaluates a tag query from the q parameter
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	hashes, err := s.cat.Search(q)
	if err != nil {
		var perr *query.ParseError
		var verr *query.ValidationError
		if errors.As(err, &perr) || errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, err.Error(), "invalid_query")
			return
		}
		log.Printf("search failed: %v", err)
		respondError(w, http.StatusInternalServerError, "search failed", "")
		return
	}

	respondJSON(w, http.StatusOK, SearchResponse{
		Query:  q,
		Count:  len(hashes),
		Hashes: hashes,
	})
}

// HandleTags returns autocomplete buckets for a tag prefix
func (s *Server) HandleTags(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	buckets, err := s.cat.TagsStartingWith(prefix)
	if err != nil {
		log.Printf("tag listing failed: %v", err)
		respondError(w, http.StatusInternalServerError, "tag listing failed", "")
		return
	}
	if len(buckets) > constants.MaxAutocompleteBuckets {
		buckets = buckets[:constants.MaxAutocompleteBuckets]
	}

	respondJSON(w, http.StatusOK, TagListResponse{Prefix: prefix, Buckets: buckets})
}

// HandleTagInfo returns the usage counter for one tag
func (s *Server) HandleTagInfo(w http.ResponseWriter, r *http.Request) {
	tag := r.PathValue("tag")

	info, err := s.cat.TagInfo(tag)
	if err != nil {
		if errors.Is(err, index.ErrUnknownTag) {
			respondError(w, http.StatusNotFound, "tag not found", "tag_not_found")
			return
		}
		log.Printf("tag info failed: %v", err)
		respondError(w, http.StatusInternalServerError, "tag info failed", "")
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// HandleTagSync recomputes a tag's counter from membership
func (s *Server) HandleTagSync(w http.ResponseWriter, r *http.Request) {
	tag := r.PathValue("tag")

	count, err := s.cat.SyncTagCount(tag)
	if err != nil {
		log.Printf("tag sync failed: %v", err)
		respondError(w, http.StatusInternalServerError, "tag sync failed", "")
		return
	}

	s.statsCache.Invalidate()
	respondJSON(w, http.StatusOK, TagSyncResponse{Tag: tag, Count: count})
}

// HandleStats serves catalog statistics, cached briefly
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	if cached := s.statsCache.Get(); cached != nil {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	statistics, err := stats.NewCalculator(s.cat).Calculate()
	if err != nil {
		log.Printf("stats calculation failed: %v", err)
		respondError(w, http.StatusInternalServerError, "stats calculation failed", "")
		return
	}

	s.statsCache.Set(statistics)
	respondJSON(w, http.StatusOK, statistics)
}

// splitTags turns a space separated tag field into a set
func splitTags(raw string) map[string]bool {
	tags := make(map[string]bool)
	for _, tag := range strings.Fields(raw) {
		tags[tag] = true
	}
	return tags
}
