// Package api exposes the composer over HTTP.
package api

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/davidmdm/hangar/internal"
	"github.com/davidmdm/hangar/pkg/hangar"
	"github.com/davidmdm/hangar/pkg/inspect"
	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/spec"
)

// Inspector reads back and removes deployed resources.
type Inspector interface {
	Status(ctx context.Context, name, namespace string) (inspect.Status, error)
	Teardown(ctx context.Context, name, namespace string) ([]inspect.ResourceStatus, error)
	List(ctx context.Context, namespace string) ([]inspect.Application, error)
}

var _ Inspector = inspect.Inspector{}

type Handler struct {
	Commander hangar.Commander
	Inspector Inspector
	Log       *zap.SugaredLogger
}

func (h Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/deployments", func(r chi.Router) {
		r.Post("/", h.handleDeploy)
		r.Get("/", h.handleList)
		r.Get("/{name}", h.handleStatus)
		r.Delete("/{name}", h.handleDelete)
	})

	return r
}

type DeployResponse struct {
	Success        bool                `json:"success"`
	Message        string              `json:"message"`
	Resources      []string            `json:"resources"`
	DeploymentName string              `json:"deployment_name"`
	Namespace      string              `json:"namespace"`
	DryRun         bool                `json:"dry_run,omitempty"`
	Documents      []resource.Document `json:"documents,omitempty"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (h Handler) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var request spec.Request
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: invalid request body: %w", spec.ErrValidation, err))
		return
	}

	dryRun := false
	if value, ok := request.Options["dry_run"]; ok {
		delete(request.Options, "dry_run")
		var err error
		if dryRun, err = cast.ToBoolE(value); err != nil {
			h.writeError(w, r, &spec.ValidationError{Field: "dry_run", Message: "must be a boolean"})
			return
		}
	}

	var (
		plan hangar.Plan
		err  error
	)
	if dryRun {
		plan, err = h.Commander.Plan(request)
	} else {
		plan, err = h.Commander.Deploy(r.Context(), request)
	}
	if err != nil && !internal.IsWarning(err) {
		h.writeError(w, r, err)
		return
	}

	response := DeployResponse{
		Success:        true,
		Message:        fmt.Sprintf("%s %s deployed", plan.Deployment.Kind, plan.Deployment.Name),
		Resources:      plan.FileNames(),
		DeploymentName: plan.Deployment.Name,
		Namespace:      plan.Deployment.Namespace,
	}
	if err != nil {
		response.Message = fmt.Sprintf("%s: %v", response.Message, err)
	}
	if dryRun {
		response.Message = fmt.Sprintf("%s %s rendered", plan.Deployment.Kind, plan.Deployment.Name)
		response.DryRun = true
		response.Documents = plan.Documents
	}

	h.log().Infow("deployment composed", "name", response.DeploymentName, "namespace", response.Namespace, "dryRun", dryRun, "resources", len(response.Resources))

	writeJSON(w, http.StatusCreated, response)
}

func (h Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !h.inspectorAvailable(w, r) {
		return
	}

	status, err := h.Inspector.Status(r.Context(), chi.URLParam(r, "name"), h.namespace(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if !h.inspectorAvailable(w, r) {
		return
	}

	apps, err := h.Inspector.List(r.Context(), r.URL.Query().Get("namespace"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if apps == nil {
		apps = []inspect.Application{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"deployments": apps})
}

func (h Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.inspectorAvailable(w, r) {
		return
	}

	name, namespace := chi.URLParam(r, "name"), h.namespace(r)

	removed, err := h.Inspector.Teardown(r.Context(), name, namespace)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log().Infow("deployment deleted", "name", name, "namespace", namespace, "resources", len(removed))

	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) inspectorAvailable(w http.ResponseWriter, r *http.Request) bool {
	if h.Inspector != nil {
		return true
	}
	h.writeError(w, r, errNoCluster)
	return false
}

var errNoCluster = errors.New("no cluster connection configured")

func (h Handler) namespace(r *http.Request) string {
	return cmp.Or(r.URL.Query().Get("namespace"), h.Commander.Defaults.Namespace, "default")
}

func (h Handler) log() *zap.SugaredLogger {
	if h.Log == nil {
		return zap.NewNop().Sugar()
	}
	return h.Log
}

// StatusCode maps an error to the HTTP status it is reported with.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, spec.ErrValidation), errors.Is(err, spec.ErrUnsupportedKind):
		return http.StatusBadRequest
	case errors.Is(err, spec.ErrConfig):
		return http.StatusUnprocessableEntity
	case errors.Is(err, inspect.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, hangar.ErrNoSink), errors.Is(err, errNoCluster):
		return http.StatusNotImplemented
	default:
		return http.StatusBadGateway
	}
}

func (h Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	if status >= 500 {
		h.log().Errorw("request failed", "path", r.URL.Path, "requestId", middleware.GetReqID(r.Context()), "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: http.StatusText(status), Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
