package channel

import (
	"context"
	"errors"
)

var (
	// ErrChannelUnreachable means the request never got an answer.
	ErrChannelUnreachable = errors.New("channel unreachable")
	// ErrMessageRejected means the channel answered and refused the request,
	// e.g. malformed markup or a deleted message.
	ErrMessageRejected = errors.New("message rejected")
)

// Photo is an image attachment given either by URL or by content.
type Photo struct {
	URL  string
	Data []byte
	Name string
}

func PhotoURL(url string) Photo {
	return Photo{URL: url}
}

func PhotoBytes(name string, data []byte) Photo {
	return Photo{Name: name, Data: data}
}

// Notifier posts and edits photo messages. Captions and reply text use the
// channel's escaped markup.
type Notifier interface {
	SendPhoto(ctx context.Context, photo Photo, caption string) (int, error)
	EditCaption(ctx context.Context, messageID int, caption string) error
	EditPhoto(ctx context.Context, messageID int, photo Photo) error
	Reply(ctx context.Context, messageID int, text string) (int, error)
	IsReachable(ctx context.Context) bool
}
