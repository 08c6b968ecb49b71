package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/apperror"
)

var errBadRequest = errors.New("bad request")

type createRoomRequest struct {
	PlayerName   string `json:"playerName"`
	RoomID       string `json:"roomId"`
	TimerSetting int    `json:"timerSetting"`
	UndoEnabled  bool   `json:"undoEnabled"`
}

type joinRoomRequest struct {
	PlayerName string `json:"playerName"`
}

type moveRequest struct {
	PlayerID  string `json:"playerId"`
	HoleIndex *int   `json:"holeIndex"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (that *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, errBadRequest)
		return
	}

	view, err := that.rooms.CreateRoom(r.Context(), req.PlayerName, req.RoomID, req.TimerSetting, req.UndoEnabled)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, view)
}

func (that *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, errBadRequest)
		return
	}

	view, err := that.rooms.JoinRoom(r.Context(), r.PathValue("roomId"), req.PlayerName)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, view)
}

func (that *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	if err := that.rooms.LeaveRoom(r.Context(), r.PathValue("roomId"), r.PathValue("playerId")); err != nil {
		that.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (that *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	view, err := that.rooms.GetRoom(r.Context(), r.PathValue("roomId"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, view)
}

func (that *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	snapshot, err := that.games.StartGame(r.Context(), r.PathValue("roomId"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, snapshot)
}

func (that *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		that.writeError(w, errBadRequest)
		return
	}

	snapshot, err := that.games.RestartGame(r.Context(), r.PathValue("roomId"), playerID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, snapshot)
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HoleIndex == nil {
		that.writeError(w, errBadRequest)
		return
	}

	snapshot, err := that.games.MakeMove(r.Context(), r.PathValue("roomId"), req.PlayerID, *req.HoleIndex)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, snapshot)
}

func (that *Server) handleResign(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		that.writeError(w, errBadRequest)
		return
	}

	snapshot, err := that.games.Resign(r.Context(), r.PathValue("roomId"), playerID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, snapshot)
}

func (that *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snapshot, err := that.games.GetState(r.Context(), r.PathValue("roomId"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, snapshot)
}

func (that *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			that.writeError(w, errBadRequest)
			return
		}
		page = parsed
	}

	history, err := that.games.GetMoveHistory(r.Context(), r.PathValue("roomId"), page)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, history)
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "error", err)
	}

	that.writeJSON(w, status, errorResponse{Message: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrRoomNotFound),
		errors.Is(err, apperror.ErrPlayerNotFound),
		errors.Is(err, apperror.ErrGameNotStarted):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrRoomAlreadyExists),
		errors.Is(err, apperror.ErrRoomFull):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidMove),
		errors.Is(err, apperror.ErrNotPlayerTurn),
		errors.Is(err, apperror.ErrInvalidRoomSettings),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
