package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chunkvault/docs"
	"chunkvault/internal/http/middleware"
	"chunkvault/internal/logging"
	"chunkvault/internal/service"
)

// Dependencies are the collaborators the routes are wired to.
type Dependencies struct {
	Upload  service.UploadService
	Content service.ContentService
	Guard   *middleware.RefererGuard
	// Health maps a dependency name to its readiness check.
	Health map[string]HealthCheckFunc
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Log      *logging.Logger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers translate HTTP to service calls and back, nothing more.
func RegisterRoutes(app *fiber.App, d Dependencies) {
	log := d.Log
	if log == nil {
		log = logging.Nop()
	}
	guard := d.Guard
	if guard == nil {
		guard = middleware.NewRefererGuard(nil)
	}

	app.Get("/health", HealthCheck(d.Health))
	app.Get("/healthz", LivenessProbe())

	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	app.Post("/upload_chunk/", UploadChunk(d.Upload, log))
	app.Post("/merge_chunks/", MergeChunks(d.Upload, log))

	// The referer check applies to streaming only; the info endpoint is
	// reachable with a token alone.
	app.Get("/content/:filename", ContentInfo(d.Content, log))
	app.Get("/stream/:filename", guard.Handler(), StreamFile(d.Content, log))

	app.Get("/files", ListFiles(d.Content, log))
	app.Delete("/files/:filename", DeleteFile(d.Content, log))
}
