package router

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	gossh "golang.org/x/crypto/ssh"
)

type contextKey string

const (
	sessionIdentityKey contextKey = "visitor-identity"
	sessionMetadataKey contextKey = "session-metadata"
)

// Identity sources.
const (
	SourcePublicKey = "publickey"
	SourceAddress   = "address"
)

// Descriptor names a middleware so the startup log can list the chain.
type Descriptor struct {
	Name       string
	Middleware wish.Middleware
}

// Identity is the stable visitor a session belongs to. Visitor is safe to use
// in persistence keys.
type Identity struct {
	Visitor     string
	User        string
	Source      string
	Fingerprint string
}

// SessionInfo is the per-session metadata available to handlers.
type SessionInfo struct {
	Identity  Identity
	SessionID string
	RemoteIP  string
	Term      string
	StartedAt time.Time
}

// ValueReader is satisfied by ssh.Context.
type ValueReader interface {
	Value(key any) any
}

// DefaultChain returns the router's middleware in execution order.
func DefaultChain() []Descriptor {
	return []Descriptor{
		{Name: "visitor-identity", Middleware: visitorIdentity()},
		{Name: "session-metadata", Middleware: sessionMetadata()},
	}
}

// MiddlewareFromDescriptors extracts the middleware in descriptor order.
func MiddlewareFromDescriptors(chain []Descriptor) []wish.Middleware {
	out := make([]wish.Middleware, 0, len(chain))
	for _, d := range chain {
		if d.Middleware == nil {
			continue
		}
		out = append(out, d.Middleware)
	}
	return out
}

// Compose wraps h so that chain[0] runs first.
func Compose(h ssh.Handler, chain []wish.Middleware) ssh.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

// IdentityFrom returns the identity stored by the visitor-identity middleware.
func IdentityFrom(ctx ValueReader) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(sessionIdentityKey).(Identity)
	return id, ok
}

// InfoFrom returns the metadata stored by the session-metadata middleware.
func InfoFrom(ctx ValueReader) (SessionInfo, bool) {
	if ctx == nil {
		return SessionInfo{}, false
	}
	info, ok := ctx.Value(sessionMetadataKey).(SessionInfo)
	return info, ok
}

func visitorIdentity() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			s.Context().SetValue(sessionIdentityKey, IdentityOf(s))
			next(s)
		}
	}
}

func sessionMetadata() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			id, ok := IdentityFrom(s.Context())
			if !ok {
				id = IdentityOf(s)
			}
			info := SessionInfo{
				Identity:  id,
				SessionID: s.Context().SessionID(),
				RemoteIP:  RemoteIP(s),
				StartedAt: time.Now().UTC(),
			}
			if pty, _, hasPTY := s.Pty(); hasPTY {
				info.Term = pty.Term
			}
			s.Context().SetValue(sessionMetadataKey, info)
			next(s)
		}
	}
}

// IdentityOf derives the visitor identity. Public-key sessions are keyed by
// the key fingerprint; everything else by user and remote IP.
func IdentityOf(s ssh.Session) Identity {
	user := strings.TrimSpace(s.User())
	if key := s.PublicKey(); key != nil {
		fp := gossh.FingerprintSHA256(key)
		return Identity{Visitor: shortHash(fp), User: user, Source: SourcePublicKey, Fingerprint: fp}
	}
	return Identity{Visitor: shortHash(user + "@" + RemoteIP(s)), User: user, Source: SourceAddress}
}

func shortHash(in string) string {
	sum := sha256.Sum256([]byte(in))
	return hex.EncodeToString(sum[:])[:16]
}

// RemoteIP returns the host part of the session's remote address.
func RemoteIP(s ssh.Session) string {
	remote := s.RemoteAddr()
	if remote == nil {
		return "unknown"
	}

	host, _, err := net.SplitHostPort(remote.String())
	if err != nil {
		return remote.String()
	}

	if host == "" {
		return "unknown"
	}
	return host
}
