package handler

import (
	"errors"
	"strconv"

	"rosterassist/internal/service"
	"rosterassist/pkg/fairwork"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func success(c *fiber.Ctx, message string, data interface{}) error {
	return successWithCode(c, fiber.StatusOK, message, data)
}

func successWithCode(c *fiber.Ctx, code int, message string, data interface{}) error {
	return c.Status(code).JSON(fiber.Map{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func errorResponse(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

func errorWithDetails(c *fiber.Ctx, code int, message string, details interface{}) error {
	return c.Status(code).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"errors":  details,
	})
}

// validationFailed renders validator/v10 errors keyed by JSON field name.
func validationFailed(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid input")
	}

	fields := make(map[string][]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = append(fields[fe.Field()], validationMessage(fe))
	}
	return errorWithDetails(c, fiber.StatusUnprocessableEntity, "Validation failed", fields)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "email":
		return "is invalid"
	case "oneof":
		return "is not included in the list"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "len":
		return "must be " + fe.Param() + " characters"
	case "numeric":
		return "must contain only digits"
	case "datetime":
		return "must be a date like " + fe.Param()
	}
	return "is invalid"
}

type conflictsBody struct {
	Status    string             `json:"status"`
	Message   string             `json:"message"`
	Conflicts []service.Conflict `json:"conflicts"`
}

// fail maps service errors onto status codes. Anything unclassified is
// logged with the request id and answered with a generic 500.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var (
		validation *service.ValidationError
		conflict   *service.ConflictError
		bulk       *service.BulkError
		tooLong    *service.ShiftTooLongError
	)

	switch {
	case errors.As(err, &validation):
		return errorWithDetails(c, fiber.StatusUnprocessableEntity, validation.Error(), validation.Fields)
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(conflictsBody{
			Status:    "error",
			Message:   conflict.Error(),
			Conflicts: conflict.Conflicts,
		})
	case errors.As(err, &bulk):
		details := make(map[string]interface{}, len(bulk.Failures))
		for _, i := range bulk.Indexes() {
			details[strconv.Itoa(i)] = bulkFailure(bulk.Failures[i])
		}
		return errorWithDetails(c, fiber.StatusUnprocessableEntity, bulk.Error(), details)
	case errors.As(err, &tooLong):
		return errorResponse(c, fiber.StatusUnprocessableEntity, tooLong.Error())
	case errors.Is(err, service.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrForbidden):
		return errorResponse(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidPin):
		return errorResponse(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrAlreadyClockedIn):
		return errorResponse(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrArgumentRequired),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrNotMonday):
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoShiftsInTemplate),
		errors.Is(err, service.ErrNotClockedIn):
		return errorResponse(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrNoRateSource),
		errors.Is(err, fairwork.ErrUnavailable):
		return errorResponse(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, fairwork.ErrAwardNotFound),
		errors.Is(err, fairwork.ErrBlankAwardCode):
		return errorResponse(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, fairwork.ErrBadRequest),
		errors.Is(err, fairwork.ErrMalformed),
		errors.Is(err, fairwork.ErrNoRates):
		return errorResponse(c, fiber.StatusBadGateway, err.Error())
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID(c),
		"method":     c.Method(),
		"path":       c.Path(),
	}).WithError(err).Error("Request failed")
	return errorResponse(c, fiber.StatusInternalServerError, "Something went wrong")
}

func bulkFailure(err error) interface{} {
	var (
		validation *service.ValidationError
		conflict   *service.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		return fiber.Map{"errors": validation.Fields}
	case errors.As(err, &conflict):
		return fiber.Map{"message": conflict.Error(), "conflicts": conflict.Conflicts}
	}
	return fiber.Map{"message": err.Error()}
}
