package routes

import (
	"scoresheet_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for match operations under /api/matches.
// The token/validate route is registered before the name lookup so it is not
// swallowed by the {match_name} variable.
func RegisterMatchRoutes(r *mux.Router, controller *controllers.MatchController, auth mux.MiddlewareFunc) {
	matchRouter := r.PathPrefix("/api/matches").Subrouter()
	matchRouter.Use(auth)

	matchRouter.HandleFunc("", controller.CreateMatch).Methods("POST")
	matchRouter.HandleFunc("/token/validate", controller.ValidateToken).Methods("GET")
	matchRouter.HandleFunc("/{match_id}/reserve", controller.Reserve).Methods("POST")
	matchRouter.HandleFunc("/{match_id}/results", controller.GetResults).Methods("GET")
	matchRouter.HandleFunc("/{match_id}", controller.DeleteMatch).Methods("DELETE")
	matchRouter.HandleFunc("/{match_name}", controller.GetMatches).Methods("GET")
}
