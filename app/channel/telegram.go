package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram posts to one chat through the Bot API. The bot is created on first
// use because creating it already performs a request.
type Telegram struct {
	token      string
	chatID     int64
	endpoint   string
	httpClient *http.Client

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

func NewTelegram(token string, chatID int64, endpoint string, httpClient *http.Client) *Telegram {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	return &Telegram{
		token:      token,
		chatID:     chatID,
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

func (t *Telegram) SendPhoto(ctx context.Context, photo Photo, caption string) (int, error) {
	bot, err := t.client(ctx)
	if err != nil {
		return 0, err
	}

	msg := tgbotapi.NewPhoto(t.chatID, photo.file())
	msg.Caption = caption
	if caption != "" {
		msg.ParseMode = tgbotapi.ModeMarkdownV2
	}

	sent, err := bot.Send(msg)
	if err != nil {
		return 0, classify("send photo", err)
	}

	slog.Debug("Photo sent", "chat_id", t.chatID, "message_id", sent.MessageID)
	return sent.MessageID, nil
}

func (t *Telegram) EditCaption(ctx context.Context, messageID int, caption string) error {
	bot, err := t.client(ctx)
	if err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageCaption(t.chatID, messageID, caption)
	edit.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := bot.Send(edit); err != nil {
		return classify("edit caption", err)
	}

	return nil
}

// EditPhoto replaces the attachment of a sent message. The caption is cleared
// by the channel and has to be edited back afterwards.
func (t *Telegram) EditPhoto(ctx context.Context, messageID int, photo Photo) error {
	bot, err := t.client(ctx)
	if err != nil {
		return err
	}

	edit := tgbotapi.EditMessageMediaConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:    t.chatID,
			MessageID: messageID,
		},
		Media: tgbotapi.NewInputMediaPhoto(photo.file()),
	}

	if _, err := bot.Send(edit); err != nil {
		return classify("edit photo", err)
	}

	return nil
}

func (t *Telegram) Reply(ctx context.Context, messageID int, text string) (int, error) {
	bot, err := t.client(ctx)
	if err != nil {
		return 0, err
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ReplyToMessageID = messageID
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	sent, err := bot.Send(msg)
	if err != nil {
		return 0, classify("reply", err)
	}

	return sent.MessageID, nil
}

func (t *Telegram) IsReachable(ctx context.Context) bool {
	bot, err := t.client(ctx)
	if err != nil {
		slog.Warn("Telegram is not reachable", "error", err)
		return false
	}

	if _, err := bot.GetMe(); err != nil {
		slog.Warn("Telegram is not reachable", "error", err)
		return false
	}

	return true
}

func (t *Telegram) client(ctx context.Context) (*tgbotapi.BotAPI, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		return t.bot, nil
	}

	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.httpClient)
	if err != nil {
		return nil, classify("connect", err)
	}

	slog.Debug("Telegram bot authorized", "username", bot.Self.UserName)
	t.bot = bot
	return bot, nil
}

func (p Photo) file() tgbotapi.RequestFileData {
	if p.URL != "" {
		return tgbotapi.FileURL(p.URL)
	}

	name := p.Name
	if name == "" {
		name = "photo.jpg"
	}
	return tgbotapi.FileBytes{Name: name, Bytes: p.Data}
}

func classify(op string, err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("failed to %s: %w: %s", op, ErrMessageRejected, apiErr.Message)
	}
	return fmt.Errorf("failed to %s: %w: %v", op, ErrChannelUnreachable, err)
}
