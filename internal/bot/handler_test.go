package bot

import (
	"strings"
	"testing"
	"time"

	"rosterassist/internal/models"
	"rosterassist/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type mockSender struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.sent = append(m.sent, c)
	return tgbotapi.Message{}, nil
}

func (m *mockSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.requests = append(m.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockSender) texts() []string {
	var out []string
	for _, c := range m.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (m *mockSender) deleted() int {
	n := 0
	for _, c := range m.requests {
		if _, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			n++
		}
	}
	return n
}

type mockAccounts struct {
	GetByChatIDFunc  func(chatID int64) (*models.User, error)
	LinkTelegramFunc func(user *models.User, chatID int64) error
}

func (m *mockAccounts) GetByChatID(chatID int64) (*models.User, error) {
	return m.GetByChatIDFunc(chatID)
}

func (m *mockAccounts) LinkTelegram(user *models.User, chatID int64) error {
	return m.LinkTelegramFunc(user, chatID)
}

type mockClock struct {
	AuthenticateFunc func(pin string) (*models.User, error)
	ClockInFunc      func(user *models.User) (*models.TimeEntry, error)
	ClockOutFunc     func(user *models.User) (*models.TimeEntry, error)
	OngoingFunc      func(user *models.User) (*models.TimeEntry, error)
}

func (m *mockClock) Authenticate(pin string) (*models.User, error) { return m.AuthenticateFunc(pin) }
func (m *mockClock) ClockInUser(u *models.User) (*models.TimeEntry, error) {
	return m.ClockInFunc(u)
}
func (m *mockClock) ClockOutUser(u *models.User) (*models.TimeEntry, error) {
	return m.ClockOutFunc(u)
}
func (m *mockClock) Ongoing(u *models.User) (*models.TimeEntry, error) { return m.OngoingFunc(u) }

func command(chatID int64, text string) tgbotapi.Update {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i > 0 {
		cmdLen = i
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{UserName: "sam"},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}}
}

var linked = &models.User{ID: 3, Name: "Sam", Role: models.RoleStaff}

func linkedAccounts() *mockAccounts {
	return &mockAccounts{
		GetByChatIDFunc: func(chatID int64) (*models.User, error) {
			if chatID == 42 {
				return linked, nil
			}
			return nil, service.ErrNotFound
		},
	}
}

func TestLinkCommand(t *testing.T) {
	sender := &mockSender{}
	var linkedChat int64
	accounts := &mockAccounts{
		LinkTelegramFunc: func(user *models.User, chatID int64) error {
			linkedChat = chatID
			return nil
		},
	}
	clock := &mockClock{
		AuthenticateFunc: func(pin string) (*models.User, error) {
			if pin == "1234" {
				return linked, nil
			}
			return nil, service.ErrInvalidPin
		},
	}
	h := NewHandler(sender, accounts, clock, time.UTC)

	h.HandleUpdate(command(42, "/link 1234"))
	if linkedChat != 42 {
		t.Fatalf("linked chat = %d, want 42", linkedChat)
	}
	if sender.deleted() != 1 {
		t.Errorf("PIN message was not deleted")
	}
	if got := sender.texts(); len(got) != 1 || !strings.Contains(got[0], "Hi Sam") {
		t.Errorf("replies = %v", got)
	}

	sender.sent = nil
	h.HandleUpdate(command(43, "/link 9999"))
	if got := sender.texts(); len(got) != 1 || got[0] != "Invalid PIN." {
		t.Errorf("replies = %v", got)
	}
}

func TestClockInFromChat(t *testing.T) {
	sender := &mockSender{}
	clockIn := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clock := &mockClock{
		ClockInFunc: func(u *models.User) (*models.TimeEntry, error) {
			return &models.TimeEntry{UserID: u.ID, ClockIn: clockIn}, nil
		},
	}
	h := NewHandler(sender, linkedAccounts(), clock, time.UTC)

	h.HandleUpdate(command(42, "/in"))
	got := sender.texts()
	if len(got) != 1 || !strings.HasPrefix(got[0], "Clocked on at 09:00") {
		t.Fatalf("replies = %v", got)
	}
}

func TestClockCommandsNeedLinkedChat(t *testing.T) {
	sender := &mockSender{}
	h := NewHandler(sender, linkedAccounts(), &mockClock{}, time.UTC)

	h.HandleUpdate(command(99, "/out"))
	got := sender.texts()
	if len(got) != 1 || !strings.Contains(got[0], "not linked") {
		t.Fatalf("replies = %v", got)
	}
}

func TestClockOutErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not clocked in", service.ErrNotClockedIn, "You are not clocked on."},
		{"too long", &service.ShiftTooLongError{Elapsed: 11 * time.Hour, Max: 10 * time.Hour}, "over the 10 hour limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockSender{}
			clock := &mockClock{
				ClockOutFunc: func(u *models.User) (*models.TimeEntry, error) { return nil, tt.err },
			}
			h := NewHandler(sender, linkedAccounts(), clock, time.UTC)

			h.HandleUpdate(command(42, "/out"))
			got := sender.texts()
			if len(got) != 1 || !strings.Contains(got[0], tt.want) {
				t.Fatalf("replies = %v, want %q", got, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	sender := &mockSender{}
	clockIn := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clock := &mockClock{
		OngoingFunc: func(u *models.User) (*models.TimeEntry, error) {
			return &models.TimeEntry{UserID: u.ID, ClockIn: clockIn}, nil
		},
	}
	h := NewHandler(sender, linkedAccounts(), clock, time.UTC)
	h.now = func() time.Time { return clockIn.Add(2*time.Hour + 5*time.Minute) }

	h.HandleUpdate(command(42, "/status"))
	got := sender.texts()
	if len(got) != 1 || !strings.Contains(got[0], "(2h 05m)") {
		t.Fatalf("replies = %v", got)
	}
}
