package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rfialho/paddle/internal/domain/roster"
)

// Handler exposes the roster REST API
type Handler struct {
	roster *roster.Service
	logger *slog.Logger
}

// NewHandler creates a new roster API handler
func NewHandler(rosterService *roster.Service, logger *slog.Logger) *Handler {
	return &Handler{roster: rosterService, logger: logger}
}

// Routes mounts the roster endpoints on a chi router
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/teams", h.ListTeams)
	r.Post("/api/teams", h.CreateTeam)
	r.Get("/api/players", h.ListPlayers)
	r.Post("/api/players", h.CreatePlayer)
	r.Delete("/api/players/{id}", h.DeletePlayer)
}

type createTeamRequest struct {
	Name         string `json:"name"`
	Captain      string `json:"captain"`
	CaptainImage string `json:"captainImage"`
	Email        string `json:"email"`
	Gender       string `json:"gender"`
}

type teamResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Captain      string           `json:"captain"`
	CaptainImage string           `json:"captainImage"`
	Email        string           `json:"email"`
	Gender       string           `json:"gender"`
	Type         string           `json:"type"`
	Balance      int64            `json:"balance"`
	CreatedAt    string           `json:"createdAt"`
	Players      []playerResponse `json:"players,omitempty"`
}

type createPlayerRequest struct {
	Name     string `json:"name"`
	Image    string `json:"image"`
	Number   int    `json:"playerNumber"`
	Position string `json:"position"`
	Gender   string `json:"gender"`
	IsStar   bool   `json:"isStar"`
}

type playerResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Number    int     `json:"number"`
	Position  string  `json:"position"`
	Gender    string  `json:"gender"`
	IsStar    bool    `json:"isStar"`
	IsSold    bool    `json:"isSold"`
	Price     *int64  `json:"price"`
	SoldTo    *string `json:"soldTo"`
	CreatedAt string  `json:"createdAt"`
}

// CreateTeam handles POST /api/teams
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	team, err := h.roster.CreateTeam(r.Context(), roster.CreateTeamCommand{
		Name:         req.Name,
		Captain:      req.Captain,
		CaptainImage: req.CaptainImage,
		Email:        req.Email,
		Gender:       roster.Gender(req.Gender),
	})
	if err != nil {
		if errors.Is(err, roster.ErrMissingFields) || errors.Is(err, roster.ErrInvalidGender) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create team", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toTeamResponse(team, nil))
}

// ListTeams handles GET /api/teams - every team hydrated with its roster
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	rosters, err := h.roster.ListTeams(r.Context())
	if err != nil {
		h.logger.Error("failed to list teams", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]teamResponse, 0, len(rosters))
	for _, tr := range rosters {
		resp = append(resp, toTeamResponse(&tr.Team, tr.Players))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreatePlayer handles POST /api/players
func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	player, err := h.roster.CreatePlayer(r.Context(), roster.CreatePlayerCommand{
		Name:     req.Name,
		Image:    req.Image,
		Number:   req.Number,
		Position: roster.Position(req.Position),
		Gender:   roster.Gender(req.Gender),
		IsStar:   req.IsStar,
	})
	if err != nil {
		if errors.Is(err, roster.ErrMissingFields) || errors.Is(err, roster.ErrInvalidGender) ||
			errors.Is(err, roster.ErrInvalidPosition) || errors.Is(err, roster.ErrInvalidNumber) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create player", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toPlayerResponse(player))
}

// ListPlayers handles GET /api/players?gender=male|female
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	gender := roster.Gender(r.URL.Query().Get("gender"))

	players, err := h.roster.ListPlayers(r.Context(), gender)
	if err != nil {
		if errors.Is(err, roster.ErrInvalidGender) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to list players", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]playerResponse, 0, len(players))
	for _, player := range players {
		resp = append(resp, toPlayerResponse(player))
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeletePlayer handles DELETE /api/players/{id}?gender=male|female
func (h *Handler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	gender := roster.Gender(r.URL.Query().Get("gender"))

	if err := h.roster.DeletePlayer(r.Context(), playerID, gender); err != nil {
		if errors.Is(err, roster.ErrInvalidGender) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, roster.ErrPlayerNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to delete player", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "player deleted"})
}

func toTeamResponse(team *roster.Team, players []*roster.Player) teamResponse {
	resp := teamResponse{
		ID:           team.ID.String(),
		Name:         team.Name,
		Captain:      team.Captain,
		CaptainImage: team.CaptainImage,
		Email:        team.Email,
		Gender:       team.Gender.String(),
		Type:         string(team.Type),
		Balance:      team.Balance,
		CreatedAt:    team.CreatedAt.Format(time.RFC3339),
	}
	for _, player := range players {
		resp.Players = append(resp.Players, toPlayerResponse(player))
	}
	return resp
}

func toPlayerResponse(player *roster.Player) playerResponse {
	resp := playerResponse{
		ID:        player.ID.String(),
		Name:      player.Name,
		Image:     player.Image,
		Number:    player.Number,
		Position:  string(player.Position),
		Gender:    player.Gender.String(),
		IsStar:    player.IsStar,
		IsSold:    player.IsSold,
		Price:     player.Price,
		CreatedAt: player.CreatedAt.Format(time.RFC3339),
	}
	if player.SoldTo != nil {
		soldTo := player.SoldTo.String()
		resp.SoldTo = &soldTo
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
