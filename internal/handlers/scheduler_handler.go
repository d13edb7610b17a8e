package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"autobahn/internal/middleware"
	"autobahn/internal/scheduler"
)

// SchedulerHandler proxies job and pipeline operations to the external
// process scheduler, forwarding the caller's own bearer token.
type SchedulerHandler struct {
	client *scheduler.Client
}

func NewSchedulerHandler(client *scheduler.Client) *SchedulerHandler {
	return &SchedulerHandler{client: client}
}

// respond maps client errors onto the envelope: upstream errors keep
// their status code, a missing host reads as 503.
func (h *SchedulerHandler) respond(w http.ResponseWriter, r *http.Request, data map[string]any, err error, action string) {
	if err == nil {
		writeSuccess(w, r, data)
		return
	}

	if errors.Is(err, scheduler.ErrNotConfigured) {
		writeError(w, r, http.StatusServiceUnavailable, 503,
			"process scheduler host not configured", nil)
		return
	}

	var statusErr *scheduler.StatusError
	if errors.As(err, &statusErr) {
		writeError(w, r, statusErr.StatusCode, statusErr.StatusCode,
			action+" failed", statusErr.Body)
		return
	}

	writeError(w, r, http.StatusInternalServerError, 500, action+" failed", err.Error())
}

func (h *SchedulerHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	data, err := h.client.ListJobs(r.Context(), middleware.Token(r.Context()), r.URL.Query())
	h.respond(w, r, data, err, "list jobs")
}

type startJobRequest struct {
	PipelineID string         `json:"pipeline_id"`
	Queue      string         `json:"queue"`
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

func (h *SchedulerHandler) StartJob(w http.ResponseWriter, r *http.Request) {
	var body startJobRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.PipelineID == "" || body.Queue == "" || body.Name == "" {
		writeError(w, r, http.StatusUnprocessableEntity, 422,
			"request body validation failed", "pipeline_id, queue and name are required")
		return
	}

	data, err := h.client.StartJob(r.Context(), middleware.Token(r.Context()), scheduler.StartJobRequest{
		PipelineID: body.PipelineID,
		Queue:      body.Queue,
		Name:       body.Name,
		Parameters: body.Parameters,
	})
	h.respond(w, r, data, err, "start job")
}

func (h *SchedulerHandler) StopJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobID"]
	data, err := h.client.StopJob(r.Context(), middleware.Token(r.Context()), jobID)
	h.respond(w, r, data, err, "stop job")
}

func (h *SchedulerHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobID"]
	data, err := h.client.DeleteJob(r.Context(), middleware.Token(r.Context()), jobID)
	h.respond(w, r, data, err, "delete job")
}

type createPipelineRequest struct {
	PipelineName string            `json:"pipeline_name"`
	YAMLContent  string            `json:"yaml_content"`
	Files        map[string]string `json:"files,omitempty"`
}

func (h *SchedulerHandler) CreatePipeline(w http.ResponseWriter, r *http.Request) {
	var body createPipelineRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.PipelineName == "" || body.YAMLContent == "" {
		writeError(w, r, http.StatusUnprocessableEntity, 422,
			"request body validation failed", "pipeline_name and yaml_content are required")
		return
	}

	data, err := h.client.CreatePipeline(r.Context(), middleware.Token(r.Context()), scheduler.CreatePipelineRequest{
		PipelineName: body.PipelineName,
		YAMLContent:  body.YAMLContent,
		Files:        body.Files,
	})
	h.respond(w, r, data, err, "create pipeline")
}

func (h *SchedulerHandler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	data, err := h.client.ListPipelines(r.Context(), middleware.Token(r.Context()), r.URL.Query())
	h.respond(w, r, data, err, "list pipelines")
}

func (h *SchedulerHandler) PipelineDetail(w http.ResponseWriter, r *http.Request) {
	pipelineID := mux.Vars(r)["pipelineID"]
	data, err := h.client.PipelineDetail(r.Context(), middleware.Token(r.Context()), pipelineID)
	h.respond(w, r, data, err, "get pipeline detail")
}

func (h *SchedulerHandler) DeletePipeline(w http.ResponseWriter, r *http.Request) {
	pipelineID := mux.Vars(r)["pipelineID"]
	data, err := h.client.DeletePipeline(r.Context(), middleware.Token(r.Context()), pipelineID)
	h.respond(w, r, data, err, "delete pipeline")
}
