// Package api provides HTTP routing and handlers for the scheduling
// board's JSON API.
package api

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/internal/api/handlers"
	"github.com/jakechorley/camp-scheduler/internal/api/middleware"
	"github.com/jakechorley/camp-scheduler/pkg/core/gateway"
	"github.com/jakechorley/camp-scheduler/pkg/core/schedule"
)

// NewRouter creates and configures the HTTP router with all API routes
func NewRouter(gw *gateway.Gateway, grid schedule.Grid, week schedule.WeekWindow, weekRule string, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging(logger))
	r.Use(middleware.ErrorRecovery(logger))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", handlers.HealthCheck(gw)).Methods("GET")

	api.HandleFunc("/schedule", handlers.GetSchedule(gw, week)).Methods("GET")
	api.HandleFunc("/schedule/load", handlers.LoadSchedule(gw)).Methods("POST")
	api.HandleFunc("/schedule/save", handlers.SaveSchedule(gw)).Methods("POST")

	api.HandleFunc("/assignments", handlers.CreateAssignment(gw, grid)).Methods("POST")
	api.HandleFunc("/assignments", handlers.DeleteAssignment(gw)).Methods("DELETE")
	api.HandleFunc("/swap", handlers.SwapAssignments(gw)).Methods("POST")
	api.HandleFunc("/drop", handlers.Drop(gw, grid)).Methods("POST")

	api.HandleFunc("/staff/{program}", handlers.StaffPool(gw, week, weekRule, logger)).Methods("GET")

	return r
}
