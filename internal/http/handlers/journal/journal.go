package journal

import (
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/journal-service/internal/apperr"
	"github.com/princekumarofficial/journal-service/internal/http/middleware"
	"github.com/princekumarofficial/journal-service/internal/services/journal"
	"github.com/princekumarofficial/journal-service/internal/types"
	"github.com/princekumarofficial/journal-service/internal/utils/response"
)

// Log handles creating a journal entry
// @Summary Post a journal entry
// @Description Create the day's journal entry. Only one entry is accepted per cooldown; the response carries the updated streaks and whether a new record was set.
// @Tags journal
// @Accept json
// @Produce json
// @Param entry body types.LogRequest true "Journal entry"
// @Success 201 {object} types.CreatedPost "Entry created"
// @Failure 400 {object} response.Response "Validation error or posting cooldown active"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /log [post]
func Log(entries *journal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		var req types.LogRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, err)
			return
		}

		created, err := entries.CreatePost(r.Context(), userID, req)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusCreated, created)
	}
}
