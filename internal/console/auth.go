package console

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"charge-console/internal/gateway"
	"charge-console/internal/session"
)

// Login handles POST /api/auth/login. The upstream authenticates the
// credentials; the console mints a session id and persists the token
// pair and user profile behind it.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.Email == "" || body.Password == "" {
		return UnauthorizedError("Email and password are required")
	}

	result, err := h.client.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}

	return h.establishSession(c, result)
}

// RefreshSession handles POST /api/auth/refresh. The session keeps its
// id; only the token pair and expiry change, so already-built
// controllers pick up the new token on their next fetch.
func (h *Handler) RefreshSession(c *fiber.Ctx) error {
	sess := GetSession(c)

	result, err := h.client.RefreshToken(c.Context(), sess.RefreshToken)
	if err != nil {
		return err
	}

	updated := session.FromLogin(sess.ID, result.Token, result.RefreshToken, result.TokenExpirationDate, result.User)
	if updated.User == nil {
		updated.User = sess.User
		updated.Role = sess.Role
		updated.OperatorID = sess.OperatorID
	}
	if err := h.sessions.Put(c.Context(), updated); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"sessionId": updated.ID,
		"expiresAt": updated.ExpiresAt,
	}})
}

// Logout handles POST /api/auth/logout: drops the persisted session
// and every controller built on top of it.
func (h *Handler) Logout(c *fiber.Ctx) error {
	sess := GetSession(c)
	if err := h.sessions.Delete(c.Context(), sess.ID); err != nil {
		return err
	}
	h.state.drop(sess.ID)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// ValidateOTP handles POST /api/auth/otp/validate. A successful code
// exchange behaves like a login.
func (h *Handler) ValidateOTP(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.Email == "" || body.OTP == "" {
		return UnauthorizedError("Email and code are required")
	}

	result, err := h.client.ValidateOTP(c.Context(), body.Email, body.OTP)
	if err != nil {
		return err
	}

	return h.establishSession(c, result)
}

// ResendOTP handles POST /api/auth/otp/resend.
func (h *Handler) ResendOTP(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.Email == "" {
		return NewAppError("INVALID_PAYLOAD", 400, "Email is required")
	}

	if err := h.client.ResendOTP(c.Context(), body.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Code sent"})
}

func (h *Handler) establishSession(c *fiber.Ctx, result *gateway.LoginResult) error {
	sess := session.FromLogin(uuid.New().String(), result.Token, result.RefreshToken, result.TokenExpirationDate, result.User)
	if err := h.sessions.Put(c.Context(), sess); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"sessionId": sess.ID,
		"user":      sess.User,
		"role":      sess.Role,
		"expiresAt": sess.ExpiresAt,
	}})
}
