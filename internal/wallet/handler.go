package wallet

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/placemaking/walletpass/internal/googlewallet"
	"github.com/placemaking/walletpass/internal/logging"
)

// Handler exposes wallet pass endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a wallet HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{service: service, logger: logger}
}

type addPassResponse struct {
	Success bool   `json:"success"`
	PassID  string `json:"passId"`
	SaveURL string `json:"saveUrl"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	PassID  string `json:"passId,omitempty"`
}

type passResponse struct {
	PassID       string     `json:"passId"`
	ClassID      string     `json:"classId"`
	CouponID     string     `json:"couponId,omitempty"`
	Title        string     `json:"title"`
	Code         string     `json:"code"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	SaveIssuedAt *time.Time `json:"saveIssuedAt,omitempty"`
}

// AddPass issues a wallet pass for the coupon in the request body.
func (h *Handler) AddPass(c *fiber.Ctx) error {
	var coupon CouponData
	if err := json.Unmarshal(c.Body(), &coupon); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorResponse{Error: "Invalid request body", Details: err.Error()})
	}

	res, err := h.service.Issue(c.UserContext(), coupon)
	if err != nil {
		return h.writeError(c, res.PassID, err)
	}
	return c.Status(http.StatusOK).JSON(addPassResponse{
		Success: true,
		PassID:  res.PassID,
		SaveURL: res.SaveURL,
		Message: res.Message,
	})
}

// GetPass returns the stored record for a pass.
func (h *Handler) GetPass(c *fiber.Ctx) error {
	rec, err := h.service.Get(c.UserContext(), c.Params("passId"))
	if err != nil {
		return h.writeError(c, "", err)
	}
	return c.JSON(passResponse{
		PassID:       rec.ID,
		ClassID:      rec.ClassID,
		CouponID:     rec.CouponID,
		Title:        rec.Title,
		Code:         rec.Code,
		Status:       rec.Status,
		CreatedAt:    rec.CreatedAt,
		SaveIssuedAt: rec.SaveIssuedAt,
	})
}

// RenewSaveURL mints a new save URL for a stored pass.
func (h *Handler) RenewSaveURL(c *fiber.Ctx) error {
	res, err := h.service.RenewSaveURL(c.UserContext(), c.Params("passId"))
	if err != nil {
		return h.writeError(c, res.PassID, err)
	}
	return c.JSON(addPassResponse{Success: true, PassID: res.PassID, SaveURL: res.SaveURL, Message: res.Message})
}

// Coupons lists the sample coupons.
func (h *Handler) Coupons(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"coupons": Catalog()})
}

func (h *Handler) writeError(c *fiber.Ctx, passID string, err error) error {
	status, body := classify(err)
	body.PassID = passID
	if status >= http.StatusInternalServerError {
		h.logger.Error("wallet request failed", slog.String("path", c.Path()), slog.String("pass_id", passID), slog.Any("error", err))
	} else {
		h.logger.Warn("wallet request rejected", slog.String("path", c.Path()), slog.Any("error", err))
	}
	return c.Status(status).JSON(body)
}

// classify maps service errors to an HTTP status and error envelope.
func classify(err error) (int, errorResponse) {
	var vErr *ValidationError
	var upErr *googlewallet.UpstreamError

	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, errorResponse{Error: vErr.Message}
	case errors.Is(err, ErrMissingIssuerClass):
		return http.StatusInternalServerError, errorResponse{Error: "Google Wallet API not configured. Missing issuer/class."}
	case errors.Is(err, ErrPassNotFound):
		return http.StatusNotFound, errorResponse{Error: "Pass not found"}
	case errors.As(err, &upErr):
		status := upErr.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		return status, errorResponse{Error: upstreamMessage(upErr.Op), Details: upErr.Body}
	default:
		// Token exchange rejections and missing credentials land here.
		return http.StatusInternalServerError, errorResponse{Error: "Internal server error", Details: err.Error()}
	}
}

func upstreamMessage(op string) string {
	switch op {
	case googlewallet.OpCreateObject:
		return "Failed to create wallet object"
	case googlewallet.OpGetObject:
		return "Failed to retrieve existing wallet object"
	case googlewallet.OpCreateClass:
		return "Failed to create wallet class"
	case googlewallet.OpGetClass:
		return "Failed to read wallet class"
	default:
		return "Google Wallet request failed"
	}
}
