package server

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/glossary/internal/cli"
	"github.com/hyperjump/glossary/internal/lookup"
	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/internal/page"
	"github.com/hyperjump/glossary/internal/search"
)

const viewHead = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Glossary</title></head><body>`

// engineBackend serves the lookup controller straight from the search engine.
type engineBackend struct {
	engine *search.Engine
}

func (b engineBackend) Search(ctx context.Context, q string) (*models.SearchResponse, error) {
	return b.engine.Search(ctx, q)
}

func (b engineBackend) Frequency(ctx context.Context, q string) (*models.Frequency, error) {
	resp, err := b.engine.Frequency(ctx, q)
	if err != nil {
		return nil, err
	}
	n := resp.Frequency
	return &models.Frequency{Count: &n}, nil
}

func (b engineBackend) Pairs(ctx context.Context, q string) ([]models.Pair, error) {
	resp, err := b.engine.Pairs(ctx, q)
	if err != nil {
		return nil, err
	}
	return resp.CommonPairs, nil
}

// handleView runs a lookup and returns the settled result page.
// expand lists entry indexes to show expanded, e.g. expand=0,2.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	expand, err := cli.ParseIndexes(r.URL.Query().Get("expand"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rendered, err := lookup.Snapshot(r.Context(), engineBackend{s.engine}, r.URL.Query().Get("q"), expand,
		lookup.WithLogger(s.logger),
		lookup.WithPreviewLimit(s.config.Render.PreviewLimit),
		lookup.WithMaxInFlight(s.config.Client.MaxInFlight),
	)
	if err != nil {
		s.logger.Warn("view failed", zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, err := page.Parse(strings.NewReader(rendered))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	body, err := page.NewSanitizer().SanitizeSelection(doc.ByID("results"))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(viewHead + body + "</body></html>"))
}
