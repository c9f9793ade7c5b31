package mcpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mcpexec/backend/internal/containers"
	"github.com/mcpexec/backend/internal/fileio"
)

// healthResponse mirrors the Tool & Prompt Server's liveness contract:
// a caller can tell the process is up and whether it has a container
// runtime client to work with.
type healthResponse struct {
	Status            string `json:"status"`
	Service           string `json:"service"`
	ClientInitialized bool   `json:"client_initialized"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status := "healthy"
	code := http.StatusOK
	if s.manager == nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	s.jsonResponseStatus(w, healthResponse{
		Status:            status,
		Service:           "mcpexec-tool-server",
		ClientInitialized: s.manager != nil,
	}, code)
}

type skillSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
}

type skillListResponse struct {
	Skills []skillSummary `json:"skills"`
	Count  int            `json:"count"`
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	all, err := s.registry.List()
	if err != nil {
		s.logger.Error("failed to list skills", "error", err)
		s.jsonError(w, "failed to list skills", http.StatusInternalServerError)
		return
	}
	out := make([]skillSummary, 0, len(all))
	for _, sk := range all {
		out = append(out, skillSummary{ID: sk.ID, Name: sk.Name, Description: sk.Description, Version: sk.Version})
	}
	s.jsonResponse(w, skillListResponse{Skills: out, Count: len(out)})
}

type skillDetail struct {
	skillSummary
	Body          string `json:"body"`
	ContainerPath string `json:"container_path"`
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/skills/")
	if id == "" {
		s.jsonError(w, "skill id required", http.StatusBadRequest)
		return
	}
	sk, found, err := s.registry.Get(id)
	if err != nil {
		s.logger.Error("failed to look up skill", "id", id, "error", err)
		s.jsonError(w, "failed to look up skill", http.StatusInternalServerError)
		return
	}
	if !found {
		s.jsonError(w, "skill not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, skillDetail{
		skillSummary: skillSummary{ID: sk.ID, Name: sk.Name, Description: sk.Description, Version: sk.Version},
		Body:          sk.Body,
		ContainerPath: sk.ContainerPath,
	})
}

type artifactListResponse struct {
	Artifacts []string `json:"artifacts"`
	Count     int      `json:"count"`
}

type artifactResponse struct {
	ArtifactID string `json:"artifact_id"`
	Data       string `json:"data"`
	Encoding   string `json:"encoding"`
}

// rejectPathTraversal rejects any request whose raw path contains "..".
// http.ServeMux cleans "." and ".." segments out of the path and issues
// a 301 redirect to the cleaned path before any handler (including
// handleArtifactRoutes) ever sees the request, so a traversal attempt
// like "/u1/artifacts/../etc/passwd" never reaches
// handleArtifactRoutes's own segment check or fileio's PathViolation
// check. This must run before the mux dispatches, on the raw,
// uncleaned request path.
func (s *Server) rejectPathTraversal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "..") {
			s.jsonError(w, "path traversal not allowed", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleArtifactRoutes serves GET /{user_id}/artifacts and
// GET /{user_id}/artifacts/{name}. It is mounted at "/" because the
// user id is a path segment, not a header, for these routes: a
// container's own artifacts are addressed by the id it was acquired
// under, independent of who happens to be calling.
func (s *Server) handleArtifactRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[1] != "artifacts" || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	userID := parts[0]

	if len(parts) == 2 {
		names, err := s.io.ListArtifacts(r.Context(), userID)
		if err != nil {
			s.artifactError(w, err)
			return
		}
		s.jsonResponse(w, artifactListResponse{Artifacts: names, Count: len(names)})
		return
	}

	if len(parts) == 3 {
		name := parts[2]
		data, err := s.io.GetArtifact(r.Context(), userID, name)
		if err != nil {
			s.artifactError(w, err)
			return
		}
		s.jsonResponse(w, artifactResponse{
			ArtifactID: name,
			Data:       base64.StdEncoding.EncodeToString(data),
			Encoding:   "base64",
		})
		return
	}

	http.NotFound(w, r)
}

func (s *Server) artifactError(w http.ResponseWriter, err error) {
	var notFound *fileio.ArtifactNotFoundError
	var pathViolation *fileio.PathViolationError
	var tooLarge *fileio.ArtifactTooLargeError
	var imgErr *containers.ImageUnavailableError
	var ctrErr *containers.ContainerUnavailableError
	switch {
	case errors.As(err, &notFound):
		s.jsonError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &pathViolation):
		s.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &tooLarge):
		s.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &imgErr), errors.As(err, &ctrErr):
		s.jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.logger.Error("artifact request failed", "error", err)
		s.jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, data any) {
	s.jsonResponseStatus(w, data, http.StatusOK)
}

func (s *Server) jsonResponseStatus(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("json encode error", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		s.logger.Error("json encode error", "error", err)
	}
}
