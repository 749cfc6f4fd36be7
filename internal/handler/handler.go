package handler

import (
	"context"
	"reflect"
	"strconv"
	"strings"
	"time"

	"rosterassist/internal/app"
	"rosterassist/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	headerRequestID = "X-Request-ID"
	headerUserID    = "X-User-ID"

	localRequestID = "request_id"
	localActor     = "actor"

	requestTimeout = 15 * time.Second
)

// Handler serves the JSON API used by the roster calendar and the clock kiosk.
type Handler struct {
	services *app.Container
	loc      *time.Location
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewHandler(services *app.Container) *Handler {
	loc := services.Location
	if loc == nil {
		loc = time.UTC
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.GetLevel())

	return &Handler{
		services: services,
		loc:      loc,
		validate: newValidator(),
		logger:   logger,
	}
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewApp builds the fiber app with middleware and every route registered.
func NewApp(h *Handler) *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:               "rosterassist",
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
		ErrorHandler:          h.errorHandler,
	})

	server.Use(recover.New())
	server.Use(h.requestID)
	server.Use(logger.New(logger.Config{
		Format: "${time} ${locals:request_id} ${status} ${method} ${path} ${latency}\n",
	}))

	h.Register(server)
	return server
}

// Register mounts the API routes.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := r.Group("/api")

	// The kiosk authenticates with the PIN itself.
	api.Post("/clock", h.toggleClock)

	api.Use(h.authenticate)

	api.Get("/me", h.me)

	api.Get("/users", h.listUsers)
	api.Post("/users", h.createUser)
	api.Get("/users/:id", h.getUser)
	api.Put("/users/:id", h.updateUser)
	api.Delete("/users/:id", h.deleteUser)
	api.Put("/users/:id/role", h.updateUserRole)
	api.Put("/users/:id/pin", h.setPin)
	api.Get("/users/:id/awards", h.listAwards)
	api.Post("/users/:id/awards/refresh", h.refreshAward)

	api.Get("/staff/available", h.availableStaff)

	api.Get("/sections", h.listSections)
	api.Post("/sections", h.createSection)
	api.Put("/sections/:id", h.updateSection)
	api.Delete("/sections/:id", h.deleteSection)

	api.Get("/templates", h.listTemplates)
	api.Post("/templates", h.createTemplate)
	api.Get("/templates/:id", h.getTemplate)
	api.Put("/templates/:id", h.updateTemplate)
	api.Delete("/templates/:id", h.deleteTemplate)
	api.Get("/templates/:id/budget", h.templateBudget)
	api.Post("/templates/:id/shifts", h.addTemplateShift)
	api.Post("/templates/:id/generate", h.generateRoster)
	api.Put("/template-shifts/:id", h.updateTemplateShift)
	api.Delete("/template-shifts/:id", h.deleteTemplateShift)

	api.Get("/rosters", h.listRosters)
	api.Get("/rosters/:id", h.getRoster)
	api.Delete("/rosters/:id", h.deleteRoster)
	api.Get("/rosters/:id/budget", h.rosterBudget)
	api.Post("/rosters/:id/shifts", h.createShift)
	api.Post("/rosters/:id/shifts/bulk", h.bulkCreateShifts)
	api.Post("/rosters/:id/conflicts", h.checkConflicts)
	api.Post("/rosters/:id/finalize", h.finalizeRoster)
	api.Put("/shifts/:id", h.updateShift)
	api.Delete("/shifts/:id", h.deleteShift)

	api.Get("/budget/week", h.weekWages)

	api.Get("/forecasts", h.listForecasts)
	api.Post("/forecasts", h.createForecast)
	api.Put("/forecasts/:id", h.updateForecast)
	api.Delete("/forecasts/:id", h.deleteForecast)

	api.Post("/awards", h.createAward)
	api.Post("/awards/:id/assign", h.assignAward)
	api.Delete("/awards/:id/assignment", h.unassignAward)

	api.Get("/reports/wages", h.wageReport)
}

// requestID reuses the caller's X-Request-ID or assigns a new one, and
// bounds the request context.
func (h *Handler) requestID(c *fiber.Ctx) error {
	id := c.Get(headerRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(headerRequestID, id)
	c.Locals(localRequestID, id)

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()
	c.SetUserContext(ctx)

	return c.Next()
}

// authenticate resolves the acting user from X-User-ID. Sign-in happens in
// front of this API.
func (h *Handler) authenticate(c *fiber.Ctx) error {
	raw := c.Get(headerUserID)
	id, err := strconv.ParseUint(raw, 10, 64)
	if raw == "" || err != nil || id == 0 {
		return errorResponse(c, fiber.StatusUnauthorized, "Missing or invalid "+headerUserID+" header")
	}

	actor, err := h.services.Users.Lookup(uint(id))
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Unknown user")
	}
	c.Locals(localActor, actor)
	return c.Next()
}

func (h *Handler) errorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return errorResponse(c, fe.Code, fe.Message)
	}
	return h.fail(c, err)
}

func actorOf(c *fiber.Ctx) *models.User {
	actor, _ := c.Locals(localActor).(*models.User)
	return actor
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(localRequestID).(string)
	return id
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// bind parses the body into dst and runs the struct validation. On failure
// the response is already written and ok is false.
func (h *Handler) bind(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}

func (h *Handler) parseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, value, h.loc)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Dates must look like "+dateLayout)
	}
	return t, nil
}

func (h *Handler) me(c *fiber.Ctx) error {
	return success(c, "Current user", actorOf(c))
}
