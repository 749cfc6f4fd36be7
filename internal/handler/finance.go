package handler

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"rosterassist/internal/export"
	"rosterassist/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) listForecasts(c *fiber.Ctx) error {
	forecasts, err := h.services.Forecasts.List(actorOf(c))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Sales forecasts", forecasts)
}

func (h *Handler) createForecast(c *fiber.Ctx) error {
	var req forecastRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	forecast, err := h.forecastFromRequest(&req)
	if err != nil {
		return err
	}
	if err := h.services.Forecasts.Create(actorOf(c), forecast); err != nil {
		return h.fail(c, err)
	}
	return successWithCode(c, fiber.StatusCreated, "Sales forecast created", forecast)
}

func (h *Handler) updateForecast(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req forecastRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	forecast, err := h.forecastFromRequest(&req)
	if err != nil {
		return err
	}
	forecast.ID = id
	if err := h.services.Forecasts.Update(actorOf(c), forecast); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Sales forecast updated", forecast)
}

func (h *Handler) deleteForecast(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.services.Forecasts.Delete(actorOf(c), id); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Sales forecast deleted", nil)
}

// weekWages compares forecast sales with rostered wages for ?start=YYYY-MM-DD.
func (h *Handler) weekWages(c *fiber.Ctx) error {
	start, err := h.parseDate(c.Query("start"))
	if err != nil {
		return err
	}
	week, err := h.services.Budget.WeekWagePercentage(actorOf(c), start)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Week wages", week)
}

func (h *Handler) listAwards(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	rates, err := h.services.Awards.ListForUser(actorOf(c), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Award rates", rates)
}

func (h *Handler) createAward(c *fiber.Ctx) error {
	var req awardRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	effective, err := h.parseDate(req.EffectiveDate)
	if err != nil {
		return err
	}

	rate := &models.AwardRate{
		UserID:         req.UserID,
		AwardCode:      req.AwardCode,
		Classification: req.Classification,
		Rate:           req.Rate,
		EffectiveDate:  &effective,
		Description:    req.Description,
	}
	if err := h.services.Awards.Create(actorOf(c), rate); err != nil {
		return h.fail(c, err)
	}
	return successWithCode(c, fiber.StatusCreated, "Award rate created", rate)
}

func (h *Handler) assignAward(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req assignRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	if err := h.services.Awards.Assign(actorOf(c), id, req.UserID); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Award rate assigned", nil)
}

func (h *Handler) unassignAward(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.services.Awards.Unassign(actorOf(c), id); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Award rate unassigned", nil)
}

// refreshAward pulls the current rate for one staff member from the award
// rate service.
func (h *Handler) refreshAward(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req refreshRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	rate, err := h.services.Awards.RefreshStaff(c.UserContext(), actorOf(c), userID, req.AwardCode, req.Classification)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Award rate refreshed", rate)
}

// wageReport answers ?start_date&end_date[&user_ids=1,2][&format=csv|xlsx].
// Without a format the rows come back as JSON.
func (h *Handler) wageReport(c *fiber.Ctx) error {
	start, err := h.parseDate(c.Query("start_date"))
	if err != nil {
		return err
	}
	end, err := h.parseDate(c.Query("end_date"))
	if err != nil {
		return err
	}
	userIDs, err := parseIDList(c.Query("user_ids"))
	if err != nil {
		return err
	}

	rows, err := h.services.WageReport.Generate(actorOf(c), start, end, userIDs)
	if err != nil {
		return h.fail(c, err)
	}

	filename := fmt.Sprintf("wage_report_%s_to_%s", start.Format(dateLayout), end.Format(dateLayout))
	var buf bytes.Buffer

	switch strings.ToLower(c.Query("format")) {
	case "", "json":
		return success(c, "Wage report", rows)
	case "csv":
		if err := export.WriteWageReportCSV(&buf, rows); err != nil {
			return h.fail(c, err)
		}
		c.Attachment(filename + ".csv")
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	case "xlsx":
		if err := export.WriteWageReportXLSX(&buf, rows); err != nil {
			return h.fail(c, err)
		}
		c.Attachment(filename + ".xlsx")
	default:
		return errorResponse(c, fiber.StatusBadRequest, "format must be json, csv or xlsx")
	}
	return c.Send(buf.Bytes())
}

func parseIDList(raw string) ([]uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "user_ids must be a comma separated list of ids")
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
