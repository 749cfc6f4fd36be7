package handler

import (
	"rosterassist/internal/models"
	"rosterassist/internal/service"
	"rosterassist/pkg/shifttime"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) listRosters(c *fiber.Ctx) error {
	rosters, err := h.services.Rosters.List(actorOf(c))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Rosters", rosters)
}

func (h *Handler) getRoster(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	roster, err := h.services.Rosters.Get(actorOf(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Roster", roster)
}

func (h *Handler) deleteRoster(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.services.Rosters.Delete(actorOf(c), id); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Roster deleted", nil)
}

func (h *Handler) rosterBudget(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	report, err := h.services.Budget.ForDatedRoster(actorOf(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Roster budget", report)
}

func (h *Handler) createShift(c *fiber.Ctx) error {
	rosterID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req shiftRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	shift := h.shiftFromRequest(&req)
	if err := h.services.Rosters.CreateShift(actorOf(c), rosterID, shift); err != nil {
		return h.fail(c, err)
	}
	return successWithCode(c, fiber.StatusCreated, "Shift created", shift)
}

func (h *Handler) updateShift(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req shiftRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	shift := h.shiftFromRequest(&req)
	shift.ID = id
	if err := h.services.Rosters.UpdateShift(actorOf(c), shift); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Shift updated", shift)
}

func (h *Handler) deleteShift(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.services.Rosters.DeleteShift(actorOf(c), id); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Shift deleted", nil)
}

// bulkCreateShifts saves every shift of the batch or none of them.
func (h *Handler) bulkCreateShifts(c *fiber.Ctx) error {
	rosterID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req bulkShiftRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	shifts := make([]*models.DatedShift, len(req.Shifts))
	for i := range req.Shifts {
		shifts[i] = h.shiftFromRequest(&req.Shifts[i])
	}
	if err := h.services.Rosters.BulkCreate(actorOf(c), rosterID, shifts); err != nil {
		return h.fail(c, err)
	}
	return successWithCode(c, fiber.StatusCreated, "Shifts created", shifts)
}

// checkConflicts is the calendar's pre-check before it saves a shift.
func (h *Handler) checkConflicts(c *fiber.Ctx) error {
	rosterID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req conflictCheckRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	day := shifttime.WeekdayOf(req.StartTime.In(h.loc))
	if req.DayOfWeek != nil {
		day = *req.DayOfWeek
	}

	conflicts, err := h.services.Rosters.CheckConflicts(actorOf(c), rosterID, req.UserID, day, req.StartTime, req.EndTime, req.ExcludeID)
	if err != nil {
		return h.fail(c, err)
	}
	if conflicts == nil {
		conflicts = []service.Conflict{}
	}
	return c.JSON(conflictsBody{
		Status:    "success",
		Message:   "Conflict check",
		Conflicts: conflicts,
	})
}

func (h *Handler) finalizeRoster(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	finalized, err := h.services.Finalizer.Finalize(actorOf(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	if !finalized {
		return errorResponse(c, fiber.StatusConflict, "Roster is already finalized")
	}

	roster, err := h.services.Rosters.Get(actorOf(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Roster finalized", roster)
}
