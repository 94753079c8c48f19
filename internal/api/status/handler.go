package status

import (
	"bytes"
	"html/template"
	"net/http"
	"promptrelay-backend/internal/database"
	"promptrelay-backend/internal/middleware"
	"promptrelay-backend/internal/services"
	"promptrelay-backend/pkg/logger"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

const (
	ServiceBanner = "AI Prompt Tool Running"

	healthOK          = "ok"
	healthUnavailable = "unavailable"
	healthDisabled    = "disabled"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>AI Prompt Tool</title></head>
<body>
<h1>{{.Banner}}</h1>
<p>Uptime: {{.Uptime}}</p>
<p>Started: {{.StartedAt}}</p>
<ul>
{{range .Backends}}<li>{{.}}</li>
{{end}}</ul>
</body>
</html>
`))

type indexPage struct {
	Banner    string
	Uptime    string
	StartedAt string
	Backends  []string
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// Handler serves the status page. startedAt is the process start instant,
// owned by the caller.
type Handler struct {
	startedAt time.Time
	now       func() time.Time
	backends  []string
}

func NewHandler(startedAt time.Time, backends ...services.Backend) *Handler {
	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name())
	}
	return &Handler{startedAt: startedAt, now: time.Now, backends: names}
}

// Uptime is the time elapsed since the injected start instant, to the second.
func (h *Handler) Uptime() time.Duration {
	return h.now().Sub(h.startedAt).Truncate(time.Second)
}

// Index godoc
// @Summary Status page
// @Description HTML status page with uptime; plain text when the client asks for text/plain
// @Tags status
// @Produce html
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func (h *Handler) Index(c *gin.Context) {
	if c.NegotiateFormat(binding.MIMEHTML, binding.MIMEPlain) == binding.MIMEPlain {
		c.String(http.StatusOK, ServiceBanner)
		return
	}

	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, indexPage{
		Banner:    ServiceBanner,
		Uptime:    h.Uptime().String(),
		StartedAt: h.startedAt.UTC().Format(time.RFC3339),
		Backends:  h.backends,
	})
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to render status page")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Health godoc
// @Summary Health check
// @Description Reports database and cache connectivity
// @Tags status
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /healthz [get]
func (h *Handler) Health(c *gin.Context) {
	resp := HealthResponse{Status: healthOK, Database: healthOK, Cache: healthDisabled}
	code := http.StatusOK

	// Probe errors are logged only; the endpoint is unauthenticated.
	if err := database.Ping(); err != nil {
		logger.Log.Error("Database health check failed",
			zap.String("request_id", middleware.RequestID(c)),
			zap.Error(err),
		)
		resp.Status = healthUnavailable
		resp.Database = healthUnavailable
		code = http.StatusServiceUnavailable
	}

	if database.RedisClient != nil {
		if err := database.RedisClient.Ping(c.Request.Context()).Err(); err != nil {
			// the cache is optional; a failing cache degrades but does not fail the check
			logger.Log.Warn("Cache health check failed",
				zap.String("request_id", middleware.RequestID(c)),
				zap.Error(err),
			)
			resp.Cache = healthUnavailable
		} else {
			resp.Cache = healthOK
		}
	}

	c.JSON(code, resp)
}
