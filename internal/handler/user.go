package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) listUsers(c *fiber.Ctx) error {
	users, err := h.services.Users.List(actorOf(c))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Users", users)
}

func (h *Handler) getUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.services.Users.Get(actorOf(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "User", user)
}

func (h *Handler) createUser(c *fiber.Ctx) error {
	var req userRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	user := req.toModel()
	if err := h.services.Users.CreateStaff(actorOf(c), user); err != nil {
		return h.fail(c, err)
	}
	return successWithCode(c, fiber.StatusCreated, "User created", user)
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req userRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	actor := actorOf(c)
	existing, err := h.services.Users.Get(actor, id)
	if err != nil {
		return h.fail(c, err)
	}

	user := req.toModel()
	user.ID = id
	user.CreatedAt = existing.CreatedAt
	user.TelegramChatID = existing.TelegramChatID
	user.PinDigest = existing.PinDigest
	if err := h.services.Users.Update(actor, user); err != nil {
		return h.fail(c, err)
	}
	return success(c, "User updated", user)
}

func (h *Handler) updateUserRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req roleRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	if err := h.services.Users.UpdateRole(actorOf(c), id, req.Role); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Role updated", fiber.Map{"id": id, "role": req.Role})
}

func (h *Handler) deleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.services.Users.Delete(actorOf(c), id); err != nil {
		return h.fail(c, err)
	}
	return success(c, "User deleted", nil)
}

func (h *Handler) setPin(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req pinRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	if err := h.services.Clock.SetPin(actorOf(c), id, req.Pin); err != nil {
		return h.fail(c, err)
	}
	return success(c, "PIN updated", nil)
}

func (h *Handler) availableStaff(c *fiber.Ctx) error {
	staff, err := h.services.Rosters.AvailableStaff(actorOf(c))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "Available staff", staff)
}

type clockResponse struct {
	UserID    uint       `json:"user_id"`
	Name      string     `json:"name"`
	ClockedIn bool       `json:"clocked_in"`
	ClockIn   time.Time  `json:"clock_in"`
	ClockOut  *time.Time `json:"clock_out,omitempty"`
	Hours     float64    `json:"hours,omitempty"`
}

// toggleClock is the kiosk endpoint: the PIN clocks its owner out when a
// shift is open, in otherwise.
func (h *Handler) toggleClock(c *fiber.Ctx) error {
	var req clockRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	entry, clockedIn, err := h.services.Clock.Toggle(req.Pin)
	if err != nil {
		return h.fail(c, err)
	}

	resp := clockResponse{
		UserID:    entry.UserID,
		Name:      entry.User.Name,
		ClockedIn: clockedIn,
		ClockIn:   entry.ClockIn,
		ClockOut:  entry.ClockOut,
	}
	message := "Clocked in"
	if !clockedIn {
		message = "Clocked out"
		resp.Hours = entry.Hours()
	}
	return success(c, message, resp)
}
