// Package httpapi is the thin HTTP layer over the activation services.
// It owns request parsing, validation, and the status mapping of the
// domain errors; no business rules live here.
package httpapi

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/dkorchagin/activation/internal/common"
	"github.com/dkorchagin/activation/internal/logging"
	"github.com/dkorchagin/activation/internal/server/repositories/users"
	"github.com/dkorchagin/activation/internal/server/services"
)

var validate = validator.New()

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type sendActivationReq struct {
	Email string `json:"email" validate:"required,email"`
}

type activateReq struct {
	Code string `json:"code" validate:"required"`
}

// Handler registers the auth routes and dispatches into the services.
type Handler struct {
	registration *services.RegistrationService
	dispatcher   *services.DispatcherService
	activation   *services.ActivationService
	users        users.Repository
	log          logging.Logger
}

func NewHandler(registration *services.RegistrationService, dispatcher *services.DispatcherService,
	activation *services.ActivationService, usersRepo users.Repository, log logging.Logger) *Handler {
	return &Handler{
		registration: registration,
		dispatcher:   dispatcher,
		activation:   activation,
		users:        usersRepo,
		log:          log,
	}
}

// Register mounts the auth routes on r.
func (h *Handler) Register(r fiber.Router) {
	auth := r.Group("/auth")
	auth.Post("/register", h.handleRegister)
	auth.Post("/send-activation", h.handleSendActivation)
	auth.Post("/activate", h.handleActivate)
}

// handleRegister creates the account and dispatches the first code.
// A mail failure after the user row is committed returns 503; the caller
// retries with /send-activation, not by registering again.
func (h *Handler) handleRegister(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "INVALID_FIELDS", "malformed request body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, "VALIDATION_ERROR", err.Error())
	}

	userID, err := h.registration.Register(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error_code": "EMAIL_TAKEN",
				"message":    "email already exists",
			})
		}
		return h.serverError(c, err)
	}

	if err := h.dispatcher.DispatchCode(c.Context(), userID, req.Email); err != nil {
		if errors.Is(err, common.ErrMailDelivery) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error_code": "MAIL_UNAVAILABLE",
				"message":    "could not send activation email",
			})
		}
		return h.serverError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": userID})
}

// handleSendActivation re-dispatches a code. The response is 202 "sent"
// for every well-formed request, including unknown emails, already-active
// accounts, and delivery failures, so the endpoint cannot be used to
// enumerate accounts. A mail outage is only logged here; the 503 mapping
// lives on /register, where 409 already discloses that the email exists.
func (h *Handler) handleSendActivation(c *fiber.Ctx) error {
	var req sendActivationReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "INVALID_FIELDS", "malformed request body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, "VALIDATION_ERROR", err.Error())
	}

	user, err := h.users.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "sent"})
		}
		return h.serverError(c, err)
	}

	if !user.IsActive {
		if err := h.dispatcher.DispatchCode(c.Context(), user.ID, user.Email); err != nil {
			if !errors.Is(err, common.ErrMailDelivery) {
				return h.serverError(c, err)
			}
			h.log.Warn(c.Context(), "activation mail not delivered", "error", err.Error())
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "sent"})
}

// handleActivate takes the email and password as Basic auth credentials
// and the code in the JSON body.
func (h *Handler) handleActivate(c *fiber.Ctx) error {
	email, password, ok := basicCredentials(c)
	if !ok {
		return badRequest(c, "INVALID_CREDENTIALS", "basic auth credentials required")
	}

	var req activateReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "INVALID_FIELDS", "malformed request body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, "VALIDATION_ERROR", err.Error())
	}

	if err := h.activation.Activate(c.Context(), email, password, req.Code); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCode):
			return badRequest(c, "INVALID_CODE", "invalid code")
		case errors.Is(err, common.ErrCodeExpired):
			return c.Status(fiber.StatusGone).JSON(fiber.Map{
				"error_code": "CODE_EXPIRED",
				"message":    "code expired",
			})
		default:
			return h.serverError(c, err)
		}
	}

	return c.JSON(fiber.Map{"status": "activated"})
}

func basicCredentials(c *fiber.Ctx) (email, password string, ok bool) {
	const prefix = "Basic "
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	return strings.Cut(string(raw), ":")
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error_code": code,
		"message":    msg,
	})
}

// serverError hides internals from the client and logs the cause.
func (h *Handler) serverError(c *fiber.Ctx, err error) error {
	h.log.Error(c.Context(), "request failed", "path", c.Path(), "error", err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error_code": "SERVER_ERROR",
		"message":    "internal error",
	})
}
