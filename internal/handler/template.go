package handler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) listSections(c *fiber.Ctx) error {
	sections, err := h.services.Templates.ListSections(actorOf(c))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Work sections", sections)
}

func (h *Handler) createSection(c *fiber.Ctx) error {
	var req sectionRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	section, err := h.services.Templates.CreateSection(actorOf(c), req.Name, req.Color)
	if err != nil {
		return h.fail(c, err)
	}
	return successWithCode(c, fiber.StatusCreated, "Work section created", section)
}

func (h *Handler) updateSection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req sectionRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	section, err := h.services.Templates.RenameSection(actorOf(c), id, req.Name, req.Color)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Work section updated", section)
}

func (h *Handler) deleteSection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.services.Templates.DeleteSection(actorOf(c), id); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Work section deleted", nil)
}

func (h *Handler) listTemplates(c *fiber.Ctx) error {
	templates, err := h.services.Templates.List(actorOf(c))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Shift templates", templates)
}

func (h *Handler) getTemplate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	template, err := h.services.Templates.Get(actorOf(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Shift template", template)
}

func (h *Handler) createTemplate(c *fiber.Ctx) error {
	var req templateRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	template, err := h.templateFromRequest(&req)
	if err != nil {
		return err
	}
	if err := h.services.Templates.Create(actorOf(c), template); err != nil {
		return h.fail(c, err)
	}
	return successWithCode(c, fiber.StatusCreated, "Shift template created", template)
}

func (h *Handler) updateTemplate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req templateRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	template, err := h.templateFromRequest(&req)
	if err != nil {
		return err
	}
	template.ID = id
	if err := h.services.Templates.Update(actorOf(c), template); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Shift template updated", template)
}

func (h *Handler) deleteTemplate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.services.Templates.Delete(actorOf(c), id); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Shift template deleted", nil)
}

func (h *Handler) addTemplateShift(c *fiber.Ctx) error {
	templateID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req templateShiftRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	shift := req.toModel()
	if err := h.services.Templates.AddShift(actorOf(c), templateID, shift); err != nil {
		return h.fail(c, err)
	}
	return successWithCode(c, fiber.StatusCreated, "Template shift added", shift)
}

func (h *Handler) updateTemplateShift(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req templateShiftRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	shift := req.toModel()
	shift.ID = id
	if err := h.services.Templates.UpdateShift(actorOf(c), shift); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Template shift updated", shift)
}

func (h *Handler) deleteTemplateShift(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.services.Templates.DeleteShift(actorOf(c), id); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Template shift deleted", nil)
}

func (h *Handler) templateBudget(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	report, err := h.services.Budget.ForTemplate(actorOf(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Template budget", report)
}

// generateRoster creates the dated roster for the week starting on the
// given Monday.
func (h *Handler) generateRoster(c *fiber.Ctx) error {
	templateID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req generateRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	weekStart, err := h.parseDate(req.WeekStartDate)
	if err != nil {
		return err
	}

	roster, err := h.services.Generator.GenerateForOwner(actorOf(c), templateID, weekStart)
	if err != nil {
		return h.fail(c, err)
	}
	return successWithCode(c, fiber.StatusCreated, "Roster generated", roster)
}
