package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/glossary/internal/indexer"
	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	s.logger.Debug("search request", zap.String("query", q))
	response, err := s.engine.Search(r.Context(), q)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	response, err := s.engine.Frequency(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.logger.Error("frequency failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	response, err := s.engine.Pairs(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.logger.Error("pairs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// handleAdd accepts a JSON body or a form post.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var input models.EntryInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid form")
			return
		}
		input = models.EntryInput{
			IsiZulu:  r.PostForm.Get("isiZulu"),
			English:  r.PostForm.Get("English"),
			IsiXhosa: r.PostForm.Get("isiXhosa"),
			SiSwati:  r.PostForm.Get("siSwati"),
			Context:  r.PostForm.Get("Context"),
			Page:     r.PostForm.Get("Page"),
		}
	}
	entry, err := s.indexer.AddEntry(r.Context(), &input)
	if err != nil {
		s.respondIndexerError(w, "add entry failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"id": entry.ID, "status": "added"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "no file part")
		return
	}
	defer file.Close()

	entry, err := s.indexer.StoreUpload(r.Context(), header.Filename, file)
	if err != nil {
		s.respondIndexerError(w, "upload failed", err)
		return
	}
	s.logger.Info("upload stored",
		zap.String("user", currentUser(r.Context())),
		zap.String("file", header.Filename),
	)
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":        entry.ID,
		"status":    "uploaded",
		"file_path": models.Text(entry.FilePath),
	})
}

// handleUploads serves stored uploads. Directory listings are not served.
func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/") {
		http.NotFound(w, r)
		return
	}
	dir := s.config.Storage.UploadDir
	http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir))).ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	entries, err := s.storage.CountEntries(r.Context())
	if err != nil {
		s.logger.Error("status: count entries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"entries": entries,
		"config": map[string]interface{}{
			"database_path":    s.config.Storage.DatabasePath,
			"bleve_index_path": s.config.Storage.BleveIndexPath,
			"upload_dir":       s.config.Storage.UploadDir,
		},
	}
	usage, err := storage.MeasureUsage(
		s.config.Storage.DatabasePath,
		s.config.Storage.BleveIndexPath,
		s.config.Storage.UploadDir,
	)
	if err != nil {
		s.logger.Warn("status: disk usage unavailable", zap.Error(err))
	} else {
		resp["disk_usage_bytes"] = usage.Total()
		resp["disk_usage"] = usage
	}
	if s.watch != nil {
		resp["watch_directories"] = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondIndexerError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, indexer.ErrInvalidInput) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error(msg, zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
