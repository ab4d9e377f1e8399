package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"scoresheet_server/models"
	"scoresheet_server/services"

	"github.com/gorilla/mux"
)

// MatchTokenCookie carries the per-match session credential
const MatchTokenCookie = "match_token"

// MatchController handles HTTP requests for match-related actions
type MatchController struct {
	Matches      *services.MatchService
	Reservations *services.ReservationService
}

// NewMatchController creates a new MatchController instance
func NewMatchController(matches *services.MatchService, reservations *services.ReservationService) *MatchController {
	return &MatchController{Matches: matches, Reservations: reservations}
}

// writeError maps the service error taxonomy onto HTTP status codes. The
// body always carries the distinguishing detail, even where two error kinds
// share a status code.
func writeError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":  verr.Error(),
			"fields": verr.Fields,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrCredentialInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrCapacityExceeded),
		errors.Is(err, services.ErrAlreadyReserved),
		errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrContention):
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// CreateMatch handles POST /api/matches
func (mc *MatchController) CreateMatch(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	var body struct {
		models.MatchParams
		Whitelist map[string]models.MatchRole `json:"whitelist,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, match, err := mc.Matches.CreateMatch(r.Context(), body.MatchParams, body.Whitelist, identity)
	if err != nil {
		writeError(w, err)
		return
	}
	view := match.ViewFor(identity)
	writeJSON(w, http.StatusCreated, models.LiveMatchEntry{ID: id, Value: view})
}

// GetMatches handles GET /api/matches/{match_name}. Names starting with the
// reserved completed_match prefix are looked up in the durable store; all
// other names are live lookups filtered by state and host_only.
func (mc *MatchController) GetMatches(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	name := mux.Vars(r)["match_name"]

	if strings.HasPrefix(name, services.CompletedMatchPrefix) {
		matches, err := mc.Matches.FindCompletedMatches(r.Context(), name)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(matches) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, matches)
		return
	}

	query := r.URL.Query()
	states, err := services.ParseStateFilter(query["state"])
	if err != nil {
		writeError(w, err)
		return
	}
	hostOnly := query.Get("host_only") == "true"

	entries, err := mc.Matches.FindLiveMatches(r.Context(), name, states, hostOnly, identity)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(entries) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Reserve handles POST /api/matches/{match_id}/reserve. On success the
// session credential is set as a secure http-only cookie.
func (mc *MatchController) Reserve(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	matchID := mux.Vars(r)["match_id"]

	presented := ""
	if cookie, err := r.Cookie(MatchTokenCookie); err == nil {
		presented = cookie.Value
	}

	token, payload, err := mc.Reservations.Reserve(r.Context(), matchID, identity, presented)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     MatchTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, payload)
}

// ValidateToken handles GET /api/matches/token/validate
func (mc *MatchController) ValidateToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(MatchTokenCookie)
	if err != nil {
		http.Error(w, "no match token", http.StatusBadRequest)
		return
	}
	payload, err := mc.Reservations.ValidateCredential(r.Context(), cookie.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// DeleteMatch handles DELETE /api/matches/{match_id}, host only
func (mc *MatchController) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	matchID := mux.Vars(r)["match_id"]

	if err := mc.Matches.DeleteMatch(r.Context(), matchID, identity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "match deleted"})
}

// GetResults handles GET /api/matches/{match_id}/results
func (mc *MatchController) GetResults(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["match_id"]

	sheets, err := mc.Matches.GetResults(r.Context(), matchID)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(sheets) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, sheets)
}
