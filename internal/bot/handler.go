package bot

import (
	"time"

	"rosterassist/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Sender is the part of the Bot API the handler talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Accounts links chats to users.
type Accounts interface {
	GetByChatID(chatID int64) (*models.User, error)
	LinkTelegram(user *models.User, chatID int64) error
}

// Clock is the time-keeping side used by /in, /out and /status.
type Clock interface {
	Authenticate(pin string) (*models.User, error)
	ClockInUser(user *models.User) (*models.TimeEntry, error)
	ClockOutUser(user *models.User) (*models.TimeEntry, error)
	Ongoing(user *models.User) (*models.TimeEntry, error)
}

// Handler answers staff chat commands: linking a chat to an account and
// clocking on and off once linked.
type Handler struct {
	sender   Sender
	accounts Accounts
	clock    Clock
	loc      *time.Location
	now      func() time.Time
	logger   *logrus.Logger
}

func NewHandler(sender Sender, accounts Accounts, clock Clock, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Handler{
		sender:   sender,
		accounts: accounts,
		clock:    clock,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

func (h *Handler) HandleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		h.HandleUpdate(update)
	}
}

func (h *Handler) HandleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.handleCallbackQuery(update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}
	h.handleMessage(update.Message)
}

// handleCallbackQuery handles the inline clock buttons.
func (h *Handler) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	editMsg := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
	h.request(editMsg)

	switch callback.Data {
	case "command_clock_in":
		h.clockIn(chatID)
	case "command_clock_out":
		h.clockOut(chatID)
	}

	h.request(tgbotapi.NewCallback(callback.ID, ""))
}

func (h *Handler) handleMessage(message *tgbotapi.Message) {
	if message.From != nil {
		h.logger.WithFields(logrus.Fields{
			"chat_id":  message.Chat.ID,
			"username": message.From.UserName,
			"command":  message.Command(),
		}).Info("Chat message received")
	}

	if message.IsCommand() {
		h.handleCommand(message)
		return
	}

	h.reply(message.Chat.ID, "Send /help for the list of commands.")
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.sender.Send(c); err != nil {
		h.logger.WithError(err).Warn("Failed to send chat message")
	}
}

// request is for calls answered with a bare boolean rather than a message.
func (h *Handler) request(c tgbotapi.Chattable) {
	if _, err := h.sender.Request(c); err != nil {
		h.logger.WithError(err).Warn("Bot API request failed")
	}
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

// linkedUser resolves the chat's account, telling the chat when it has none.
func (h *Handler) linkedUser(chatID int64) *models.User {
	user, err := h.accounts.GetByChatID(chatID)
	if err != nil || user == nil {
		h.logger.WithField("chat_id", chatID).Warn("Chat not linked to a user")
		h.reply(chatID, "This chat is not linked to a staff account.\nSend /link followed by your clock-in PIN.")
		return nil
	}
	return user
}
