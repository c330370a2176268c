package console

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"charge-console/internal/session"
)

const sessionLocal = "session"

// RequireSession validates the bearer session id and sets the session
// context on the request. Expired sessions are purged from the store
// along with their controller state, forcing a fresh sign-in.
func (h *Handler) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return UnauthorizedError("Missing session token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return UnauthorizedError("Invalid auth header format")
		}

		sess, err := h.sessions.Get(c.Context(), parts[1])
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return UnauthorizedError("Invalid session token")
			}
			return err
		}

		if sess.Expired(time.Now()) {
			_ = h.sessions.Delete(c.Context(), sess.ID)
			h.state.drop(sess.ID)
			return SessionExpiredError()
		}

		c.Locals(sessionLocal, sess)
		return c.Next()
	}
}

// GetSession extracts the session from a fiber context.
func GetSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(sessionLocal).(*session.Session)
	return sess
}
