package server

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/matzehuels/adstudio/pkg/buildinfo"
	"github.com/matzehuels/adstudio/pkg/core/compose"
	adserrors "github.com/matzehuels/adstudio/pkg/errors"
	"github.com/matzehuels/adstudio/pkg/pipeline"
	"github.com/matzehuels/adstudio/pkg/storage"
)

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

type generateResponse struct {
	FileName string            `json:"file_name"`
	URL      string            `json:"url,omitempty"`
	Remote   bool              `json:"remote"`
	Degraded bool              `json:"degraded"`
	Strategy string            `json:"strategy"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Cached   bool              `json:"cached"`
	Record   *storage.AdRecord `json:"record,omitempty"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := adserrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Code: string(adserrors.GetCode(err)), Error: adserrors.UserMessage(err)})
}

func (s *Server) decodeOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := render.DecodeJSON(body, &opts); err != nil {
		return opts, adserrors.Wrap(adserrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return opts, nil
}

// =============================================================================
// Catalogs
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{Status: "ok", Version: buildinfo.Version, Commit: buildinfo.Commit})
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, compose.Templates())
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, compose.Platforms())
}

// =============================================================================
// Rendering
// =============================================================================

// handlePreview renders the ad and returns the raster as a download named
// after the ad's metadata.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decodeOptions(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts.Upload = false

	res, err := s.runner.Preview(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	art := res.Artifact
	h := w.Header()
	h.Set("Content-Type", art.ContentType())
	h.Set("Content-Length", strconv.Itoa(len(art.Data)))
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	h.Set("X-Ad-Strategy", art.Strategy)
	h.Set("X-Ad-Degraded", strconv.FormatBool(art.Degraded))
	if res.CacheInfo.CaptureHit {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(art.Data)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decodeOptions(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts.Upload = true

	res, err := s.runner.Generate(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, generateResponse{
		FileName: res.FileName,
		URL:      res.URL,
		Remote:   res.Remote,
		Degraded: res.Artifact.Degraded,
		Strategy: res.Artifact.Strategy,
		Width:    res.Artifact.Width,
		Height:   res.Artifact.Height,
		Cached:   res.CacheInfo.CaptureHit,
		Record:   res.Record,
	})
}

// =============================================================================
// Gallery
// =============================================================================

func (s *Server) handleListAds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := storage.ListOptions{
		Query:    strings.TrimSpace(q.Get("q")),
		Platform: q.Get("platform"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.fail(w, r, adserrors.New(adserrors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		opts.Limit = n
	}

	recs := []storage.AdRecord{}
	if s.runner.Records != nil {
		list, err := s.runner.Records.List(r.Context(), opts)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if list != nil {
			recs = list
		}
	}
	render.JSON(w, r, recs)
}

func (s *Server) handleGetAd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.runner.Records == nil {
		s.fail(w, r, storage.NotFound("record", id))
		return
	}
	rec, err := s.runner.Records.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, rec)
}

func (s *Server) handleDeleteAd(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.DeleteAd(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
