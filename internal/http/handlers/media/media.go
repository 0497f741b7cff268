// Package media serves presigned attachment URLs. Every handler answers
// with a validation error when object storage is not configured.
package media

import (
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/journal-service/internal/apperr"
	"github.com/princekumarofficial/journal-service/internal/http/middleware"
	"github.com/princekumarofficial/journal-service/internal/services/media"
	mediaTypes "github.com/princekumarofficial/journal-service/internal/types/media"
	"github.com/princekumarofficial/journal-service/internal/utils/response"
)

// UploadURL presigns a PUT into the caller's folder
// @Summary Generate presigned upload URL
// @Description The returned object_key is sent as media_key when posting a journal entry
// @Tags media
// @Accept json
// @Produce json
// @Param request body media.UploadURLRequest true "Attachment content type"
// @Success 200 {object} media.UploadInfo "Upload URL generated"
// @Failure 400 {object} response.Response "Content type not allowed or uploads disabled"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /media/upload-url [post]
func UploadURL(attachments *media.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		var req mediaTypes.UploadURLRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, err)
			return
		}

		info, err := attachments.UploadURL(r.Context(), userID, req.ContentType)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Upload URL generated", info))
	}
}

// DownloadURL presigns a GET for one of the caller's attachments
// @Summary Generate presigned download URL
// @Tags media
// @Produce json
// @Param object_key query string true "Key returned by upload-url"
// @Success 200 {object} media.DownloadInfo "Download URL generated"
// @Failure 400 {object} response.Response "Key outside the caller's folder"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /media/download-url [get]
func DownloadURL(attachments *media.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		key := r.URL.Query().Get("object_key")
		if err := attachments.ValidateKey(userID, key); err != nil {
			response.Error(w, err)
			return
		}

		info, err := attachments.DownloadURL(r.Context(), key)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Download URL generated", info))
	}
}

// List returns the caller's uploaded attachments
// @Summary List user media files
// @Tags media
// @Produce json
// @Success 200 {array} media.Object "Attachments"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /media [get]
func List(attachments *media.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		objects, err := attachments.ListUserMedia(r.Context(), userID)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Media files retrieved", objects))
	}
}
