package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autobahn/internal/handlers"
	"autobahn/internal/middleware"
)

type Router struct {
	*mux.Router
}

// Deps collects everything the routes need. Doris and the scheduler may
// be absent; their handlers answer 503 in that case.
type Deps struct {
	Account   *handlers.AccountHandler
	Domain    *handlers.DomainHandler
	SQL       *handlers.SQLHandler
	Scheduler *handlers.SchedulerHandler
	Auth      func(http.Handler) http.Handler
}

func NewRouter(d Deps) *Router {
	r := mux.NewRouter()

	// Probe endpoints stay outside the api prefix; the supervisor polls
	// /health and must not need a token for it.
	r.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/account/login", d.Account.Login).Methods(http.MethodPost)
	api.HandleFunc("/domain/list", d.Domain.List).Methods(http.MethodPost)
	api.HandleFunc("/sql/sql_query", d.SQL.Query).Methods(http.MethodPost)

	sched := api.PathPrefix("/scheduler").Subrouter()
	sched.HandleFunc("/jobs", d.Scheduler.ListJobs).Methods(http.MethodGet)
	sched.HandleFunc("/jobs", d.Scheduler.StartJob).Methods(http.MethodPost)
	sched.HandleFunc("/jobs/{jobID}/stop", d.Scheduler.StopJob).Methods(http.MethodPost)
	sched.HandleFunc("/jobs/{jobID}", d.Scheduler.DeleteJob).Methods(http.MethodDelete)
	sched.HandleFunc("/pipelines", d.Scheduler.ListPipelines).Methods(http.MethodGet)
	sched.HandleFunc("/pipelines", d.Scheduler.CreatePipeline).Methods(http.MethodPost)
	sched.HandleFunc("/pipelines/{pipelineID}", d.Scheduler.PipelineDetail).Methods(http.MethodGet)
	sched.HandleFunc("/pipelines/{pipelineID}", d.Scheduler.DeletePipeline).Methods(http.MethodDelete)

	r.Use(middleware.Recovery)
	r.Use(middleware.Trace)
	r.Use(middleware.Metrics)
	r.Use(d.Auth)

	return &Router{Router: r}
}
