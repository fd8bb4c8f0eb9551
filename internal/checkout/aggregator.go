// Package checkout turns a cart snapshot and a billing form into an order,
// gated by an explicit confirmation step.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type State string

const (
	StateIdle       State = "idle"
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StateConfirming State = "confirming"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var ErrInvalidTransition = errors.New("checkout: invalid transition")

// PersistenceError records why the order writer did not acknowledge an order.
type PersistenceError struct {
	OrderID uuid.UUID
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist order %s: %v", e.OrderID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Snapshotter yields the current cart contents as a copy.
type Snapshotter interface {
	ListItems() []models.CartLineItem
}

type DiscountStore interface {
	Load(ctx context.Context, sessionID string) (float64, error)
	Clear(ctx context.Context, sessionID string) error
}

// OrderWriter persists an order record. It is called at most once per confirmation.
type OrderWriter interface {
	CreateOrder(ctx context.Context, order *models.OrderRecord) error
}

// Confirmer presents the order summary and returns whether the shopper wants to proceed.
type Confirmer interface {
	Confirm(ctx context.Context, summary models.CheckoutSummary) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

type ConfirmerFunc func(ctx context.Context, summary models.CheckoutSummary) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, summary models.CheckoutSummary) (bool, error) {
	return f(ctx, summary)
}

type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSubmitTimeout bounds the order persistence call. Expiry fails the checkout.
func WithSubmitTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.submitTimeout = d
		}
	}
}

func WithPolicy(p DiscountPolicy) Option {
	return func(a *Aggregator) { a.policy = p }
}

func WithNotifier(n Notifier) Option {
	return func(a *Aggregator) { a.notifier = n }
}

func WithValidator(v *validator.Validate) Option {
	return func(a *Aggregator) {
		if v != nil {
			a.validate = v
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(a *Aggregator) { a.newID = newID }
}

// Aggregator runs one session's checkout. Its methods are safe for concurrent
// use; at most one submission is in flight at a time.
type Aggregator struct {
	mu            sync.Mutex
	sessionID     string
	cart          Snapshotter
	discounts     DiscountStore
	orders        OrderWriter
	notifier      Notifier
	validate      *validator.Validate
	logger        *slog.Logger
	policy        DiscountPolicy
	submitTimeout time.Duration
	now           func() time.Time
	newID         func() uuid.UUID

	state     State
	form      models.BillingForm
	invalid   models.FieldErrors
	discount  float64
	lastOrder *models.OrderRecord
	lastErr   error
}

// New loads the session's discount and returns an Idle aggregator.
func New(ctx context.Context, sessionID string, cart Snapshotter, discounts DiscountStore, orders OrderWriter, opts ...Option) (*Aggregator, error) {

	a := &Aggregator{
		sessionID:     sessionID,
		cart:          cart,
		discounts:     discounts,
		orders:        orders,
		validate:      validator.New(),
		logger:        slog.Default(),
		policy:        PolicyNone,
		submitTimeout: 10 * time.Second,
		now:           time.Now,
		newID:         uuid.New,
		state:         StateIdle,
	}

	for _, opt := range opts {
		opt(a)
	}

	discount, err := discounts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	a.discount = discount

	return a, nil
}

func (a *Aggregator) State() State {

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.state
}

// UpdateForm replaces the billing form with the values as entered. Flags from
// the last validation are kept until the next submit.
func (a *Aggregator) UpdateForm(form models.BillingForm) (models.CheckoutSummary, error) {

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.editable() {
		return a.summary(), a.transitionErr("edit the form")
	}

	a.form = form
	a.state = StateEditing

	return a.summary(), nil
}

// ReloadDiscount re-reads the persisted discount, e.g. after one was applied.
func (a *Aggregator) ReloadDiscount(ctx context.Context) (models.CheckoutSummary, error) {

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.editable() {
		return a.summary(), a.transitionErr("change the discount")
	}

	discount, err := a.discounts.Load(ctx, a.sessionID)
	if err != nil {
		return a.summary(), err
	}

	a.discount = discount

	return a.summary(), nil
}

// Submit validates the form. Every field is checked; on any failure the
// outcome is Rejected and the aggregator returns to Editing. Otherwise it waits
// in Confirming for Confirm.
func (a *Aggregator) Submit(ctx context.Context) (*models.CheckoutOutcome, error) {

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.editable() {
		return nil, a.transitionErr("submit")
	}

	a.state = StateValidating
	a.invalid = Validate(a.validate, a.form)

	if a.invalid.Any() {
		a.state = StateEditing

		return a.reject(ctx, models.Notification{
			Level: models.NotificationError,
			Title: "Missing information",
			Text:  "Please fill in all required fields.",
		}), nil
	}

	if _, err := Total(Subtotal(a.cart.ListItems()), a.discount, a.policy); err != nil {
		a.state = StateEditing

		return a.reject(ctx, models.Notification{
			Level: models.NotificationError,
			Title: "Discount not applicable",
			Text:  "The applied discount is larger than the order subtotal.",
		}), nil
	}

	a.state = StateConfirming
	summary := a.summary()

	return &models.CheckoutOutcome{State: string(StateConfirming), Summary: &summary}, nil
}

// Confirm resolves the confirmation gate. Declining returns to Editing with no
// side effect; proceeding submits the order.
func (a *Aggregator) Confirm(ctx context.Context, proceed bool) (*models.CheckoutOutcome, error) {

	a.mu.Lock()

	if a.state != StateConfirming {
		err := a.transitionErr("confirm")
		a.mu.Unlock()

		return nil, err
	}

	if !proceed {
		a.state = StateEditing
		summary := a.summary()
		a.mu.Unlock()

		return &models.CheckoutOutcome{State: string(StateEditing), Summary: &summary}, nil
	}

	a.state = StateSubmitting
	a.mu.Unlock()

	return a.submit(ctx), nil
}

// PlaceOrder runs Submit and, when the form is valid, asks c before submitting.
func (a *Aggregator) PlaceOrder(ctx context.Context, c Confirmer) (*models.CheckoutOutcome, error) {

	outcome, err := a.Submit(ctx)
	if err != nil || outcome.State != string(StateConfirming) {
		return outcome, err
	}

	proceed, err := c.Confirm(ctx, *outcome.Summary)
	if err != nil {
		if _, cerr := a.Confirm(ctx, false); cerr != nil {
			a.logger.Warn("Failed to reset checkout after confirmation error", slog.String("error", cerr.Error()))
		}

		return nil, fmt.Errorf("confirmation: %w", err)
	}

	return a.Confirm(ctx, proceed)
}

// submit runs outside the lock; state is Submitting, so no other transition can start.
func (a *Aggregator) submit(ctx context.Context) *models.CheckoutOutcome {

	logger := a.logger.With(slog.String("sessionID", a.sessionID))

	if err := a.discounts.Clear(ctx, a.sessionID); err != nil {
		logger.Error("Failed to clear applied discount", slog.String("error", err.Error()))

		return a.fail(ctx, fmt.Errorf("clear discount: %w", err), models.Notification{
			Level: models.NotificationError,
			Title: "Order not placed",
			Text:  "We could not prepare your order. Please try again.",
		})
	}

	a.mu.Lock()
	items := a.cart.ListItems()
	subtotal := Subtotal(items)
	total, _ := Total(subtotal, a.discount, a.policy)

	lines := make([]models.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.OrderLine{ProductRef: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}

	order := &models.OrderRecord{
		ID:        a.newID(),
		SessionID: a.sessionID,
		Billing:   a.form,
		CartItems: lines,
		Total:     total,
		Discount:  a.discount,
		OrderDate: a.now().UTC(),
	}
	a.mu.Unlock()

	submitCtx, cancel := context.WithTimeout(ctx, a.submitTimeout)
	defer cancel()

	if err := a.orders.CreateOrder(submitCtx, order); err != nil {
		text := "We could not save your order. Your details are kept, please try again."
		if errors.Is(err, context.DeadlineExceeded) {
			text = "Saving your order timed out. Your details are kept, please try again."
		}

		logger.Error("Failed to persist order", slog.String("orderID", order.ID.String()), slog.String("error", err.Error()))

		return a.fail(ctx, &PersistenceError{OrderID: order.ID, Err: err}, models.Notification{
			Level: models.NotificationError,
			Title: "Order not placed",
			Text:  text,
		})
	}

	a.mu.Lock()
	a.state = StateSucceeded
	a.discount = 0
	a.invalid = nil
	a.lastOrder = order
	a.lastErr = nil
	summary := a.summary()
	a.mu.Unlock()

	logger.Info("Order placed", slog.String("orderID", order.ID.String()), slog.Float64("total", order.Total))

	n := models.Notification{
		Level: models.NotificationSuccess,
		Title: "Order placed",
		Text:  fmt.Sprintf("Thank you! Your order %s totals %s.", order.ID, FormatAmount(order.Total)),
		Order: order,
	}
	a.notify(ctx, n)

	return &models.CheckoutOutcome{State: string(StateSucceeded), Summary: &summary, Order: order, Notification: &n}
}

func (a *Aggregator) fail(ctx context.Context, cause error, n models.Notification) *models.CheckoutOutcome {

	a.mu.Lock()
	a.state = StateFailed
	a.lastErr = cause
	summary := a.summary()
	a.mu.Unlock()

	a.notify(ctx, n)

	return &models.CheckoutOutcome{State: string(StateFailed), Summary: &summary, Notification: &n}
}

// reject is called with a.mu held.
func (a *Aggregator) reject(ctx context.Context, n models.Notification) *models.CheckoutOutcome {

	summary := a.summary()
	a.notify(ctx, n)

	return &models.CheckoutOutcome{
		State:        string(StateRejected),
		Invalid:      a.invalid,
		Summary:      &summary,
		Notification: &n,
	}
}

func (a *Aggregator) notify(ctx context.Context, n models.Notification) {
	if a.notifier != nil {
		a.notifier.Notify(ctx, n)
	}
}

// LastOrder returns the order placed by the most recent successful submission.
func (a *Aggregator) LastOrder() *models.OrderRecord {

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.lastOrder
}

// LastError returns the cause of the most recent failed submission, or nil
// once an order has gone through.
func (a *Aggregator) LastError() error {

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.lastErr
}

func (a *Aggregator) Summary() models.CheckoutSummary {

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.summary()
}

func (a *Aggregator) summary() models.CheckoutSummary {

	items := a.cart.ListItems()
	subtotal := Subtotal(items)
	total, _ := Total(subtotal, a.discount, a.policy)

	return models.CheckoutSummary{
		State:        string(a.state),
		Items:        items,
		Subtotal:     subtotal,
		Discount:     a.discount,
		Total:        total,
		DisplayTotal: FormatAmount(total),
		Form:         a.form,
		Invalid:      a.invalid,
	}
}

func (a *Aggregator) editable() bool {
	switch a.state {
	case StateIdle, StateEditing, StateRejected, StateFailed, StateSucceeded:
		return true
	default:
		return false
	}
}

func (a *Aggregator) transitionErr(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, a.state)
}
