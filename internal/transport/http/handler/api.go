package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appsvc "taskbox/internal/app"
	"taskbox/internal/transport/http/middleware"
	"taskbox/internal/transport/http/response"
)

const maxBodyBytes = 1 << 20

type APIHandler struct {
	dispatcher *appsvc.Dispatcher
}

func NewAPIHandler(dispatcher *appsvc.Dispatcher) *APIHandler {
	return &APIHandler{dispatcher: dispatcher}
}

func (h *APIHandler) Handle(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "server error")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, "request too large")
			return
		}
		response.Error(c, http.StatusBadRequest, "unreadable body")
		return
	}

	res := h.dispatcher.Dispatch(c.Request.Context(), sess, body)
	response.JSON(c, res.Status, res.Body)
}
