package telegram

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// WebhookServer runs the push transport: Telegram posts updates to
// /webhook and the same normalized events flow to the orchestrator as
// in polling mode. /ping is the liveness surface.
type WebhookServer struct {
	client  *Client
	handler Handler
	secret  string
	log     *logrus.Logger
}

func NewWebhookServer(client *Client, handler Handler, secret string, log *logrus.Logger) *WebhookServer {
	return &WebhookServer{client: client, handler: handler, secret: secret, log: log}
}

func (s *WebhookServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.log))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "bot": "running"})
	})
	r.POST("/webhook", s.handleUpdate)

	return r
}

func (s *WebhookServer) handleUpdate(c *gin.Context) {
	if s.secret != "" && c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != s.secret {
		c.Status(http.StatusForbidden)
		return
	}

	var u Update
	if err := c.ShouldBindJSON(&u); err != nil {
		s.log.WithError(err).Warn("bad webhook payload")
		c.Status(http.StatusBadRequest)
		return
	}

	ev, ok := Normalize(u)
	if !ok {
		c.Status(http.StatusOK)
		return
	}

	if ev.Command == transport.CmdNone && ev.Text != "" {
		s.client.SendTyping(c.Request.Context(), ev.ChatID)
	}

	reply := s.handler.Handle(c.Request.Context(), ev)
	if reply != nil {
		if err := s.client.Deliver(c.Request.Context(), ev, reply); err != nil {
			s.log.WithError(err).WithField("user_id", ev.UserID).Error("reply delivery failed")
		}
	}

	// Telegram retries non-200s; handling errors are already logged and
	// the reply path has its own fallback, so always acknowledge
	c.Status(http.StatusOK)
}

// Run registers the webhook with Telegram, serves until the context is
// cancelled and deregisters on the way out.
func (s *WebhookServer) Run(ctx context.Context, addr, publicURL string) error {
	if err := s.client.SetWebhook(ctx, publicURL+"/webhook", s.secret); err != nil {
		return err
	}
	s.log.WithField("url", publicURL+"/webhook").Info("webhook registered")

	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.DeleteWebhook(shutdownCtx); err != nil {
		s.log.WithError(err).Warn("webhook deregister failed")
	}
	return srv.Shutdown(shutdownCtx)
}
