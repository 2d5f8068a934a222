package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shinobi-relay/internal/relayerr"
	"shinobi-relay/pkg/models"
)

// fakeBot records every request and fails the request numbered failAt (1-based).
type fakeBot struct {
	mu     sync.Mutex
	calls  []tgbotapi.Chattable
	failAt int
}

func (f *fakeBot) record(c tgbotapi.Chattable) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.failAt == len(f.calls) {
		return errors.New("Too Many Requests: retry after 5")
	}
	return nil
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return tgbotapi.Message{}, f.record(c)
}

func (f *fakeBot) SendMediaGroup(c tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	return nil, f.record(c)
}

func photos(n int) []models.Photo {
	out := make([]models.Photo, n)
	for i := range out {
		out[i] = models.Photo{Name: fmt.Sprintf("cam%d.jpg", i+1), Data: []byte{0xff, 0xd8, byte(i)}}
	}
	return out
}

func mediaNames(t *testing.T, c tgbotapi.MediaGroupConfig) []string {
	t.Helper()
	var names []string
	for _, m := range c.Media {
		photo, ok := m.(tgbotapi.InputMediaPhoto)
		require.True(t, ok, "unexpected media type %T", m)
		file, ok := photo.Media.(tgbotapi.FileBytes)
		require.True(t, ok)
		names = append(names, file.Name)
	}
	return names
}

func TestSendPhotoBatchEmpty(t *testing.T) {
	bot := &fakeBot{}
	sink := NewSink(bot, zerolog.Nop())

	d, err := sink.SendPhotoBatch(context.Background(), 42, nil, "caption")
	require.NoError(t, err)
	assert.True(t, d.Empty)
	assert.Zero(t, d.Sent)
	assert.Zero(t, d.Requests)
	assert.Empty(t, bot.calls)
}

func TestSendPhotoBatchSingle(t *testing.T) {
	bot := &fakeBot{}
	sink := NewSink(bot, zerolog.Nop())

	d, err := sink.SendPhotoBatch(context.Background(), 42, photos(1), "1 camera missing")
	require.NoError(t, err)
	assert.Equal(t, Delivery{Sent: 1, Requests: 1}, d)

	require.Len(t, bot.calls, 1)
	msg, ok := bot.calls[0].(tgbotapi.PhotoConfig)
	require.True(t, ok, "got %T", bot.calls[0])
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "1 camera missing", msg.Caption)
	assert.Equal(t, "cam1.jpg", msg.File.(tgbotapi.FileBytes).Name)
}

func TestSendPhotoBatchAlbum(t *testing.T) {
	bot := &fakeBot{}
	sink := NewSink(bot, zerolog.Nop())

	d, err := sink.SendPhotoBatch(context.Background(), 7, photos(3), "")
	require.NoError(t, err)
	assert.Equal(t, Delivery{Sent: 3, Requests: 1}, d)

	require.Len(t, bot.calls, 1)
	group, ok := bot.calls[0].(tgbotapi.MediaGroupConfig)
	require.True(t, ok)
	assert.Equal(t, int64(7), group.ChatID)
	assert.Equal(t, []string{"cam1.jpg", "cam2.jpg", "cam3.jpg"}, mediaNames(t, group))
}

func TestSendPhotoBatchChunksLargeBatches(t *testing.T) {
	bot := &fakeBot{}
	sink := NewSink(bot, zerolog.Nop())

	d, err := sink.SendPhotoBatch(context.Background(), 7, photos(11), "gap")
	require.NoError(t, err)
	assert.Equal(t, Delivery{Sent: 11, Requests: 2}, d)

	require.Len(t, bot.calls, 2)
	group := bot.calls[0].(tgbotapi.MediaGroupConfig)
	assert.Len(t, group.Media, MaxMediaGroup)
	assert.Equal(t, "gap", group.Media[0].(tgbotapi.InputMediaPhoto).Caption)
	assert.Empty(t, group.Media[1].(tgbotapi.InputMediaPhoto).Caption)

	last := bot.calls[1].(tgbotapi.PhotoConfig)
	assert.Equal(t, "cam11.jpg", last.File.(tgbotapi.FileBytes).Name)
	assert.Empty(t, last.Caption)
}

func TestSendPhotoBatchPartialFailure(t *testing.T) {
	bot := &fakeBot{failAt: 2}
	sink := NewSink(bot, zerolog.Nop())

	d, err := sink.SendPhotoBatch(context.Background(), 7, photos(15), "")
	require.Error(t, err)
	assert.True(t, relayerr.Is(err, relayerr.ChatDeliveryError))
	assert.Equal(t, 10, d.Sent)
	assert.Equal(t, 2, d.Requests)
	assert.False(t, d.Empty)
}

func TestSendPhotoBatchCancelled(t *testing.T) {
	bot := &fakeBot{}
	sink := NewSink(bot, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sink.SendPhotoBatch(ctx, 7, photos(2), "")
	assert.True(t, relayerr.Is(err, relayerr.ChatDeliveryError))
	assert.Empty(t, bot.calls)
}

func TestSendText(t *testing.T) {
	bot := &fakeBot{}
	sink := NewSink(bot, zerolog.Nop())

	require.NoError(t, sink.SendText(context.Background(), 99, "armed"))
	require.Len(t, bot.calls, 1)
	msg := bot.calls[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(99), msg.ChatID)
	assert.Equal(t, "armed", msg.Text)

	bot.failAt = 2
	err := sink.SendText(context.Background(), 99, "again")
	assert.True(t, relayerr.Is(err, relayerr.ChatDeliveryError))
}
