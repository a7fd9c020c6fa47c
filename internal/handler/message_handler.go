package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-messenger/internal/middleware"
	"go-messenger/internal/model"
	"go-messenger/internal/service"
	"go-messenger/pkg/apierror"
)

type MessageHandler struct {
	service *service.MessageService
}

func NewMessageHandler(service *service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.ResultFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	messages, err := h.service.Inbox(r.Context(), res.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, messages, nil)
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	res, ok := middleware.ResultFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	msg, err := h.service.Send(r.Context(), res.User.ID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, msg, nil)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.ResultFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	messageID := chi.URLParam(r, "message_id")
	if messageID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "message_id is required", "", http.StatusBadRequest))
		return
	}

	if err := h.service.Delete(r.Context(), res.User, messageID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
