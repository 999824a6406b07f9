package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/placemaking/walletpass/internal/wallet"
)

// RegisterWalletRoutes wires wallet pass endpoints. issueGuards run before add-pass only.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, issueGuards ...fiber.Handler) {
	r.Get("/coupons", h.Coupons)
	r.Post("/wallet/add-pass", append(issueGuards, h.AddPass)...)
	r.Get("/wallet/passes/:passId", h.GetPass)
	r.Post("/wallet/passes/:passId/save-url", h.RenewSaveURL)
}
