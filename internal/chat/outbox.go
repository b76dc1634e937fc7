package chat

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/minechat/internal/proto"
)

// Outbox turns user input into outbound envelopes.
type Outbox struct {
	sender Sender
	feed   *Feed
	self   Self
	log    *zerolog.Logger
}

// NewOutbox builds an outbox.
func NewOutbox(sender Sender, feed *Feed, self Self, logger *zerolog.Logger) *Outbox {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Outbox{sender: sender, feed: feed, self: self, log: logger}
}

// SendText sends a chat line and shows it locally; the server does not echo
// plain chat back to its author. Blank text is ignored.
func (o *Outbox) SendText(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	env := proto.Envelope{
		Kind:      proto.KindChat,
		Sender:    o.self.Username(),
		Body:      text,
		Timestamp: o.sender.Now(),
	}
	if !o.sender.Send(env) {
		return false
	}
	o.feed.Display(env)
	return true
}

// SendImage shows the uploading placeholder and sends data as a data URL.
// The placeholder stays until the server echoes the image back.
func (o *Outbox) SendImage(data []byte) error {
	dataURL, err := EncodeImage(data)
	if err != nil {
		return err
	}

	o.feed.BeginUpload(o.sender.Now())
	sent := o.sender.Send(proto.Envelope{
		Kind:      proto.KindImage,
		Sender:    o.self.Username(),
		Body:      dataURL,
		Timestamp: o.sender.Now(),
	})
	o.log.Debug().Bool("sent", sent).Int("bytes", len(data)).Msg("image upload")
	return nil
}

// EncodeImage builds a base64 data URL, rejecting content that is not an image.
func EncodeImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUploadFailed)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: %s is not an image", ErrUploadFailed, mt.String())
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
