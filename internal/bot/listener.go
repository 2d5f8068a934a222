// Package bot turns Telegram chat commands into relays and arm/disarm
// toggles.
package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"shinobi-relay/internal/armed"
	"shinobi-relay/internal/relay"
	"shinobi-relay/pkg/models"
)

// UpdatesAPI is the polling half of *tgbotapi.BotAPI.
type UpdatesAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Relayer is satisfied by *relay.Pipeline.
type Relayer interface {
	Run(ctx context.Context, req relay.Request) (relay.Outcome, error)
}

// Replier is satisfied by *telegram.Sink.
type Replier interface {
	SendText(ctx context.Context, dest models.Destination, text string) error
}

type Listener struct {
	updates     UpdatesAPI
	relay       Relayer
	reply       Replier
	state       *armed.State
	self        string
	pollTimeout int
	log         zerolog.Logger

	wg sync.WaitGroup
}

// NewListener builds a listener for the bot whose username is self; group
// chat commands addressed to any other bot are ignored.
func NewListener(updates UpdatesAPI, relayer Relayer, reply Replier, state *armed.State, self string, pollTimeout int, log zerolog.Logger) *Listener {
	return &Listener{
		updates:     updates,
		relay:       relayer,
		reply:       reply,
		state:       state,
		self:        self,
		pollTimeout: pollTimeout,
		log:         log.With().Str("component", "bot").Logger(),
	}
}

// Run consumes updates until ctx is cancelled, then waits for in-flight
// handlers to finish. Each update is handled on its own goroutine so a slow
// relay never holds up /arm or /status.
func (l *Listener) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = l.pollTimeout
	cfg.AllowedUpdates = []string{"message"}

	updates := l.updates.GetUpdatesChan(cfg)
	l.log.Info().Msg("listening for chat commands")

	defer l.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			l.updates.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			l.wg.Add(1)
			go func() {
				defer l.wg.Done()
				l.Handle(ctx, update)
			}()
		}
	}
}

// Handle dispatches a single update. Non-command messages are ignored.
func (l *Listener) Handle(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	dest := models.Destination(msg.Chat.ID)
	cmd, addressed := ParseCommand(msg.Text, l.self)
	if !addressed {
		l.log.Debug().Stringer("chat_id", dest).Str("command", msg.CommandWithAt()).Msg("command for another bot ignored")
		return
	}
	log := l.log.With().Stringer("chat_id", dest).Stringer("command", cmd).Logger()
	log.Debug().Msg("command received")

	var text string
	switch cmd {
	case CommandRelay:
		text = l.relayNow(ctx, dest, log)
	case CommandArm:
		l.state.Arm()
		text = "Armed: motion alerts are paused. /photo still works."
	case CommandDisarm:
		l.state.Disarm()
		text = "Disarmed: motion alerts will be sent."
	case CommandStatus:
		text = statusText(l.state)
	case CommandHelp:
		text = helpText
	default:
		text = "Unknown command.\n\n" + helpText
	}

	if text == "" {
		return
	}
	if err := l.reply.SendText(ctx, dest, text); err != nil {
		log.Error().Err(err).Msg("reply failed")
	}
}

// relayNow runs an unsuppressed relay to the requesting chat and returns the
// acknowledgement to send, or "" when the photos speak for themselves.
func (l *Listener) relayNow(ctx context.Context, dest models.Destination, log zerolog.Logger) string {
	out, err := l.relay.Run(ctx, relay.Request{
		Destination: dest,
		Trigger:     relay.TriggerCommand,
	})
	if err != nil {
		log.Error().Err(err).Str("relay_id", out.ID).Msg("manual relay failed")
		return fmt.Sprintf("Could not send camera photos: %v", err)
	}

	if out.Status == relay.StatusNoMonitors {
		return "No cameras are configured."
	}
	return ""
}

func statusText(state *armed.State) string {
	if state.Armed() {
		return "Status: armed (motion alerts paused)."
	}
	return "Status: disarmed (motion alerts active)."
}
