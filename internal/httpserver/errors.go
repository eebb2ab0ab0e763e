// apps/go-server/internal/httpserver/errors.go
//
// Mapping of domain errors to HTTP responses.
// Every error body has the shape
//   {"error": code, "message": text, "retry": "refresh"|"request", "words": [...]}
// where retry tells the client whether to reload the game before trying
// again ("refresh") or to resend the same request ("request").

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/scrabble/apps/go-server/internal/game"
	"github.com/robalobadob/scrabble/apps/go-server/internal/service"
)

type errorBody struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Retry   string   `json:"retry,omitempty"`
	Words   []string `json:"words,omitempty"`
}

type errorKind struct {
	err    error
	status int
	code   string
	retry  string
}

var errorKinds = []errorKind{
	{game.ErrNotFound, http.StatusNotFound, "not_found", ""},
	{game.ErrNotOwner, http.StatusForbidden, "not_owner", ""},
	{game.ErrNotInGame, http.StatusForbidden, "not_in_game", ""},
	{game.ErrStaleTurn, http.StatusConflict, "stale_turn", "refresh"},
	{game.ErrNotPlayerTurn, http.StatusConflict, "not_player_turn", "refresh"},
	{game.ErrGameNotJoinable, http.StatusConflict, "game_not_joinable", ""},
	{game.ErrAlreadyJoined, http.StatusConflict, "already_joined", ""},
	{game.ErrGameNotInProgress, http.StatusConflict, "game_not_in_progress", "refresh"},
	{game.ErrExchangeAlreadyUsed, http.StatusConflict, "exchange_already_used", ""},
	{game.ErrInsufficientTiles, http.StatusConflict, "insufficient_tiles", ""},
	{game.ErrInvalidSettings, http.StatusBadRequest, "invalid_settings", ""},
	{service.ErrInvalidMessage, http.StatusBadRequest, "invalid_message", ""},
	{game.ErrInvalidTileState, http.StatusUnprocessableEntity, "invalid_tile_state", ""},
	{game.ErrNoTilesPlaced, http.StatusUnprocessableEntity, "no_tiles_placed", ""},
	{game.ErrInvalidPlacement, http.StatusUnprocessableEntity, "invalid_placement", ""},
	{game.ErrCellOccupied, http.StatusUnprocessableEntity, "cell_occupied", ""},
	{game.ErrCenterNotCovered, http.StatusUnprocessableEntity, "center_not_covered", ""},
	{game.ErrDisconnectedPlacement, http.StatusUnprocessableEntity, "disconnected_placement", ""},
	{game.ErrSingleLetterWord, http.StatusUnprocessableEntity, "single_letter_word", ""},
}

// writeError maps err onto a status code and JSON body. Unknown errors
// are transient: 500 and the client may resend the request unchanged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var iw *game.InvalidWordError
	if errors.As(err, &iw) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error: "invalid_word", Message: err.Error(), Words: iw.Words,
		})
		return
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			writeJSON(w, k.status, errorBody{Error: k.code, Message: err.Error(), Retry: k.retry})
			return
		}
	}
	log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Error: "internal", Message: "internal error", Retry: "request",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
