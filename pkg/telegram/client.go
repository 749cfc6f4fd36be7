package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Client struct {
	Bot          *tgbotapi.BotAPI
	UpdateConfig tgbotapi.UpdateConfig
}

func NewClient(token string, debug bool) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	bot.Debug = debug

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	return &Client{
		Bot:          bot,
		UpdateConfig: updateConfig,
	}, nil
}

// Send passes a prepared message or callback answer to the Bot API.
func (c *Client) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.Bot.Send(msg)
}

// Request is for calls answered with a boolean, such as deleting a message.
func (c *Client) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.Bot.Request(msg)
}

// SendMessage sends plain text to a chat.
func (c *Client) SendMessage(chatID int64, text string) error {
	_, err := c.Bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (c *Client) Updates() tgbotapi.UpdatesChannel {
	return c.Bot.GetUpdatesChan(c.UpdateConfig)
}

func (c *Client) Stop() {
	c.Bot.StopReceivingUpdates()
}
