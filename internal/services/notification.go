package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/checkout"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/pkg/sendGrid"
)

const emailTimeout = 5 * time.Second

// NotificationService logs every checkout notification and mails a
// confirmation to the shopper when an order is placed.
type NotificationService interface {
	Notify(ctx context.Context, n models.Notification)
}

type notificationService struct {
	emailService sendGrid.EmailService
}

// NewNotificationService accepts a nil emailService, in which case no mail is sent.
func NewNotificationService(emailService sendGrid.EmailService) NotificationService {
	return &notificationService{emailService: emailService}
}

func (s *notificationService) Notify(ctx context.Context, n models.Notification) {

	logger := middleware.LoggerFromContext(ctx)

	level := slog.LevelInfo
	if n.Level == models.NotificationError || n.Level == models.NotificationWarning {
		level = slog.LevelWarn
	}

	logger.Log(ctx, level, "Checkout notification", slog.String("level", string(n.Level)), slog.String("title", n.Title), slog.String("text", n.Text))

	if n.Level != models.NotificationSuccess || n.Order == nil || s.emailService == nil {
		return
	}

	mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emailTimeout)
	defer cancel()

	if err := s.emailService.Send(mailCtx, OrderConfirmationEmail(n.Order)); err != nil {
		logger.Error("Failed to send order confirmation", slog.String("orderID", n.Order.ID.String()), slog.String("error", err.Error()))
	}
}

func OrderConfirmationEmail(order *models.OrderRecord) *models.EmailNotificationRequest {

	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\nThank you for your order %s.\n\n", order.Billing.FirstName, order.ID)

	for _, line := range order.CartItems {
		fmt.Fprintf(&b, "  %d x %s @ %s\n", line.Quantity, line.ProductRef, checkout.FormatAmount(line.UnitPrice))
	}

	if order.Discount > 0 {
		fmt.Fprintf(&b, "\nDiscount: -%s", checkout.FormatAmount(order.Discount))
	}

	fmt.Fprintf(&b, "\nTotal: %s\n\nShipping to %s, %s %s, %s.\n",
		checkout.FormatAmount(order.Total), order.Billing.Address, order.Billing.ZipCode, order.Billing.City, order.Billing.Country)

	return &models.EmailNotificationRequest{
		To:          order.Billing.Email,
		Subject:     "Your order " + order.ID.String(),
		Content:     b.String(),
		HTMLContent: orderConfirmationHTML(order),
	}
}

// orderConfirmationHTML renders the same message as HTML. Billing values are
// entered by the shopper and go through checkout.HTMLSafe.
func orderConfirmationHTML(order *models.OrderRecord) string {

	billing := checkout.HTMLSafe(order.Billing)

	var b strings.Builder

	fmt.Fprintf(&b, "<p>Hi %s,</p><p>Thank you for your order %s.</p><ul>", billing.FirstName, order.ID)

	for _, line := range order.CartItems {
		fmt.Fprintf(&b, "<li>%d x %s @ %s</li>", line.Quantity, html.EscapeString(line.ProductRef), checkout.FormatAmount(line.UnitPrice))
	}

	b.WriteString("</ul>")

	if order.Discount > 0 {
		fmt.Fprintf(&b, "<p>Discount: -%s</p>", checkout.FormatAmount(order.Discount))
	}

	fmt.Fprintf(&b, "<p>Total: %s</p><p>Shipping to %s, %s %s, %s.</p>",
		checkout.FormatAmount(order.Total), billing.Address, billing.ZipCode, billing.City, billing.Country)

	return b.String()
}
