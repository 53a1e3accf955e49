package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskbox/internal/csrf"
	"taskbox/internal/transport/http/middleware"
	"taskbox/internal/transport/http/response"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

type pageData struct {
	CSRF string
}

// PageHandler serves the application shell. It never touches item storage;
// the client loads data through the API after boot.
type PageHandler struct {
	guard  *csrf.Guard
	logger *slog.Logger
}

func NewPageHandler(guard *csrf.Guard, logger *slog.Logger) *PageHandler {
	return &PageHandler{guard: guard, logger: logger}
}

func (h *PageHandler) Show(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.String(http.StatusInternalServerError, "Server error")
		return
	}

	token, err := h.guard.Issue(c.Request.Context(), sess)
	if err != nil {
		h.logger.Error("issue csrf token failed", "error", err)
		c.String(http.StatusInternalServerError, "Server error")
		return
	}

	body, err := renderIndex(token)
	if err != nil {
		h.logger.Error("render page failed", "error", err)
		c.String(http.StatusInternalServerError, "Server error")
		return
	}
	response.HTML(c, body)
}

func renderIndex(token string) ([]byte, error) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, pageData{CSRF: token}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
