// Package telegram delivers photo batches and text replies to Telegram chats.
package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"shinobi-relay/internal/relayerr"
	"shinobi-relay/pkg/models"
)

// MaxMediaGroup is the largest album Telegram accepts in one sendMediaGroup.
const MaxMediaGroup = 10

const (
	opSendPhotos = "send photos"
	opSendText   = "send text"
)

// Delivery reports what a SendPhotoBatch call did.
type Delivery struct {
	// Empty is set when there was nothing to send and no request was made.
	Empty bool
	// Sent counts photos Telegram accepted. On error it tells how far the
	// batch got; earlier messages are not retracted.
	Sent int
	// Requests counts Telegram API calls made.
	Requests int
}

type Sink struct {
	api BotAPI
	log zerolog.Logger
}

func NewSink(api BotAPI, log zerolog.Logger) *Sink {
	return &Sink{api: api, log: log.With().Str("component", "telegram").Logger()}
}

// SendPhotoBatch sends photos to dest as albums of up to MaxMediaGroup,
// preserving order. A single photo (or a trailing chunk of one) goes out
// through sendPhoto since albums need at least two items. caption, if set,
// is attached to the first photo.
func (s *Sink) SendPhotoBatch(ctx context.Context, dest models.Destination, photos []models.Photo, caption string) (Delivery, error) {
	var d Delivery
	if len(photos) == 0 {
		d.Empty = true
		return d, nil
	}

	for start := 0; start < len(photos); start += MaxMediaGroup {
		if err := ctx.Err(); err != nil {
			return d, relayerr.New(relayerr.ChatDeliveryError, opSendPhotos, err)
		}

		end := min(start+MaxMediaGroup, len(photos))
		chunk := photos[start:end]
		chunkCaption := ""
		if start == 0 {
			chunkCaption = caption
		}

		d.Requests++
		if err := s.sendChunk(dest, chunk, chunkCaption); err != nil {
			s.log.Error().Err(err).
				Stringer("chat_id", dest).
				Int("sent", d.Sent).
				Int("total", len(photos)).
				Msg("photo batch partially delivered")
			return d, relayerr.New(relayerr.ChatDeliveryError, opSendPhotos, err)
		}
		d.Sent += len(chunk)
	}

	s.log.Debug().Stringer("chat_id", dest).Int("photos", d.Sent).Int("requests", d.Requests).Msg("photo batch delivered")
	return d, nil
}

func (s *Sink) sendChunk(dest models.Destination, chunk []models.Photo, caption string) error {
	if len(chunk) == 1 {
		msg := tgbotapi.NewPhoto(int64(dest), fileBytes(chunk[0]))
		msg.Caption = caption
		_, err := s.api.Send(msg)
		return err
	}

	media := make([]interface{}, len(chunk))
	for i, p := range chunk {
		item := tgbotapi.NewInputMediaPhoto(fileBytes(p))
		if i == 0 {
			item.Caption = caption
		}
		media[i] = item
	}
	_, err := s.api.SendMediaGroup(tgbotapi.NewMediaGroup(int64(dest), media))
	return err
}

// SendText sends a plain status message.
func (s *Sink) SendText(ctx context.Context, dest models.Destination, text string) error {
	if err := ctx.Err(); err != nil {
		return relayerr.New(relayerr.ChatDeliveryError, opSendText, err)
	}
	if _, err := s.api.Send(tgbotapi.NewMessage(int64(dest), text)); err != nil {
		return relayerr.New(relayerr.ChatDeliveryError, opSendText, err)
	}
	return nil
}

func fileBytes(p models.Photo) tgbotapi.FileBytes {
	return tgbotapi.FileBytes{Name: p.Name, Bytes: p.Data}
}
