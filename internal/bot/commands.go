package bot

import (
	"errors"
	"fmt"
	"strings"

	"rosterassist/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `Available commands:

/link PIN - Link this chat to your staff account
/in - Clock on
/out - Clock off
/status - Show whether you are on the clock
/help - Show this message

Once linked, published rosters and shift changes are sent to this chat.`

func (h *Handler) handleCommand(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	args := message.CommandArguments()

	switch message.Command() {
	case "start", "help":
		h.reply(chatID, helpText)
	case "link":
		h.link(message, args)
	case "in", "startwork":
		h.clockIn(chatID)
	case "out", "endwork", "finish":
		h.clockOut(chatID)
	case "status":
		h.status(chatID)
	default:
		h.reply(chatID, "Unknown command. Use /help for the list of commands.")
	}
}

// link ties the chat to the account owning the PIN. The message carrying the
// PIN is deleted from the chat.
func (h *Handler) link(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	pin := strings.TrimSpace(args)

	if pin == "" {
		h.reply(chatID, "Usage: /link PIN")
		return
	}
	h.request(tgbotapi.NewDeleteMessage(chatID, message.MessageID))

	user, err := h.clock.Authenticate(pin)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPin) {
			h.reply(chatID, "Invalid PIN.")
			return
		}
		h.logger.WithError(err).Error("Failed to authenticate PIN for chat link")
		h.reply(chatID, "Something went wrong, please try again.")
		return
	}

	if err := h.accounts.LinkTelegram(user, chatID); err != nil {
		h.logger.WithError(err).Error("Failed to link chat")
		h.reply(chatID, "Something went wrong, please try again.")
		return
	}

	h.reply(chatID, fmt.Sprintf("Hi %s, this chat is now linked to your account.", user.Name))
}

func (h *Handler) clockIn(chatID int64) {
	user := h.linkedUser(chatID)
	if user == nil {
		return
	}

	entry, err := h.clock.ClockInUser(user)
	if err != nil {
		h.reply(chatID, clockErrorText(err))
		if !errors.Is(err, service.ErrAlreadyClockedIn) {
			h.logger.WithError(err).Error("Failed to clock in from chat")
		}
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Clocked on at %s.\nUse /out when you finish.",
		entry.ClockIn.In(h.loc).Format("15:04 Mon 02 Jan")))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Clock off", "command_clock_out"),
		),
	)
	h.send(msg)
}

func (h *Handler) clockOut(chatID int64) {
	user := h.linkedUser(chatID)
	if user == nil {
		return
	}

	entry, err := h.clock.ClockOutUser(user)
	if err != nil {
		h.reply(chatID, clockErrorText(err))
		return
	}

	text := fmt.Sprintf("Clocked off.\n\nWorked: %s - %s\nTotal: %s",
		entry.ClockIn.In(h.loc).Format("15:04"),
		entry.ClockOut.In(h.loc).Format("15:04"),
		entry.Duration())

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Clock on again", "command_clock_in"),
		),
	)
	h.send(msg)
}

func (h *Handler) status(chatID int64) {
	user := h.linkedUser(chatID)
	if user == nil {
		return
	}

	entry, err := h.clock.Ongoing(user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load clock status")
		h.reply(chatID, "Something went wrong, please try again.")
		return
	}
	if entry == nil {
		h.reply(chatID, "You are not on the clock.")
		return
	}

	elapsed := entry.Elapsed(h.now())
	h.reply(chatID, fmt.Sprintf("On the clock since %s (%dh %02dm).",
		entry.ClockIn.In(h.loc).Format("15:04 Mon 02 Jan"),
		int(elapsed.Hours()), int(elapsed.Minutes())%60))
}

func clockErrorText(err error) string {
	var tooLong *service.ShiftTooLongError
	switch {
	case errors.Is(err, service.ErrAlreadyClockedIn):
		return "You are already clocked on."
	case errors.Is(err, service.ErrNotClockedIn):
		return "You are not clocked on."
	case errors.As(err, &tooLong):
		return fmt.Sprintf("This shift has run %.1f hours, over the %.0f hour limit. Ask a manager to fix your time entry.",
			tooLong.Elapsed.Hours(), tooLong.Max.Hours())
	}
	return "Something went wrong, please try again."
}
