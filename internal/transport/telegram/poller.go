package telegram

import (
	"context"
	"errors"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/transport"
	"github.com/sirupsen/logrus"
)

// Handler is the orchestrator boundary seen from the transport side.
type Handler interface {
	Handle(ctx context.Context, ev transport.Event) *transport.Reply
}

// Poller runs the pull transport: a getUpdates long-poll loop that
// dispatches each update on its own goroutine. Behavior downstream of
// Normalize is identical to webhook mode.
type Poller struct {
	client  *Client
	handler Handler
	log     *logrus.Logger

	pollTimeout time.Duration
}

func NewPoller(client *Client, handler Handler, log *logrus.Logger) *Poller {
	return &Poller{
		client:      client,
		handler:     handler,
		log:         log,
		pollTimeout: 30 * time.Second,
	}
}

// Run polls until the context is cancelled. A webhook left over from a
// previous deployment blocks getUpdates, so it is removed first.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.client.DeleteWebhook(ctx); err != nil {
		p.log.WithError(err).Warn("webhook cleanup failed")
	}

	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := p.client.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			p.log.WithError(err).Warn("getUpdates failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			ev, ok := Normalize(u)
			if !ok {
				continue
			}
			go p.dispatch(ctx, ev)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, ev transport.Event) {
	if ev.Command == transport.CmdNone && ev.Text != "" {
		p.client.SendTyping(ctx, ev.ChatID)
	}

	reply := p.handler.Handle(ctx, ev)
	if reply == nil {
		return
	}
	if err := p.client.Deliver(ctx, ev, reply); err != nil {
		p.log.WithError(err).WithField("user_id", ev.UserID).Error("reply delivery failed")
	}
}
