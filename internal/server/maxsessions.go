package server

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"

	"folio-terminal/internal/router"
)

// MaxSessionsMiddleware caps concurrent sessions. A slot is released when the
// handler returns, panics, or the session context ends, whichever is first.
func MaxSessionsMiddleware(limit int) wish.Middleware {
	if limit <= 0 {
		limit = 1
	}
	slots := make(chan struct{}, limit)

	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			select {
			case slots <- struct{}{}:
			default:
				log.Warn("max sessions exceeded", "event", "max_sessions_rejected", "remote_ip", router.RemoteIP(s), "limit", limit)
				_, _ = s.Write([]byte("max sessions exceeded\n"))
				return
			}

			var once sync.Once
			release := func() { once.Do(func() { <-slots }) }
			stop := context.AfterFunc(s.Context(), release)
			defer stop()
			defer release()
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("session handler panicked", "event", "session_panic", "remote_ip", router.RemoteIP(s), "panic", rec)
				}
			}()

			next(s)
		}
	}
}
