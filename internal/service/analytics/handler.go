package analytics

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/voltgrid/console/internal/domain"
	"github.com/voltgrid/console/internal/ports"
)

// Handler handles report HTTP requests
type Handler struct {
	service ports.ReportService
}

// NewHandler creates a new report handler
func NewHandler(service ports.ReportService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers report routes
func (h *Handler) RegisterRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	reports := app.Group("/api/v1/reports", authMiddleware)

	reports.Get("/analytics", h.GetAnalytics)
	reports.Post("/sync", h.TriggerSync)
	reports.Get("/export", h.ExportCSV)
}

// GetAnalytics handles GET /api/v1/reports/analytics. An unknown range or a
// malformed custom bound is not an error: the resolver falls back to the
// month default and the report is served with 200 regardless of degradation.
func (h *Handler) GetAnalytics(c *fiber.Ctx) error {
	filter := parseFilter(c)

	report, err := h.service.Refresh(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}

// TriggerSync handles POST /api/v1/reports/sync
func (h *Handler) TriggerSync(c *fiber.Ctx) error {
	res, err := h.service.TriggerSync(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(res)
}

// ExportCSV handles GET /api/v1/reports/export
func (h *Handler) ExportCSV(c *fiber.Ctx) error {
	data, err := h.service.ExportCSV(c.Context())
	if err != nil {
		if errors.Is(err, ErrNoReport) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="revenue_report.csv"`)
	return c.Send(data)
}

func parseFilter(c *fiber.Ctx) domain.ReportFilter {
	filter := domain.ReportFilter{
		Range:       domain.RangeKeyword(c.Query("range", string(domain.RangeMonth))),
		Region:      c.Query("region"),
		CustomStart: c.Query("from"),
		CustomEnd:   c.Query("to"),
	}
	if raw := c.Query("station_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.StationID = &id
		}
	}
	return filter
}
