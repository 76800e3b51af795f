package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/entrealas/orderdesk/internal/cart"
	"github.com/entrealas/orderdesk/internal/catalog"
	"github.com/entrealas/orderdesk/internal/delivery"
	"github.com/entrealas/orderdesk/internal/message"
	"github.com/entrealas/orderdesk/internal/orders"
	"github.com/entrealas/orderdesk/internal/pricing"
	"github.com/entrealas/orderdesk/internal/special"
	"github.com/entrealas/orderdesk/pkg/enums"
	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
	"github.com/entrealas/orderdesk/pkg/logger"
	"github.com/entrealas/orderdesk/pkg/metrics"
)

// DefaultClientDebounce batches client name/phone keystrokes.
const DefaultClientDebounce = 150 * time.Millisecond

// Deps are the collaborators shared by every session. Catalog and Rules are
// read-only and may be shared.
type Deps struct {
	Catalog        *catalog.Catalog
	Rules          *pricing.Rules
	Formatter      *message.Formatter
	Store          orders.Store
	Channel        delivery.Channel
	Codes          *orders.CodeGenerator
	Metrics        *metrics.OrderMetrics
	Logger         *logger.Logger
	ClientDebounce time.Duration
	DeepLinkBase   string
	Recipient      string
}

type clientInput struct {
	name  string
	phone string
}

// Session owns one working order: its cart, special builder and order
// metadata. Every exported method serializes on the session mutex.
type Session struct {
	mu sync.Mutex

	id        string
	catalog   *catalog.Catalog
	rules     *pricing.Rules
	formatter *message.Formatter
	store     orders.Store
	channel   delivery.Channel
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger

	cart    *cart.Cart
	builder *special.Builder
	order   *orders.Order
	client  *debouncer[clientInput]

	pending      *PreparedDelivery
	linkBase     string
	recipient    string
	lastActivity time.Time
	now          func() time.Time
}

func New(id string, deps Deps) *Session {
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.Rules == nil {
		deps.Rules = pricing.Default()
	}
	if deps.Formatter == nil {
		deps.Formatter = message.NewFormatter("", "")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Store == nil {
		deps.Store = orders.NewLogStore(deps.Logger)
	}
	if deps.Channel == nil {
		deps.Channel = delivery.NewDeepLink(deps.DeepLinkBase, deps.Recipient, nil)
	}

	c := cart.New()
	s := &Session{
		id:        id,
		catalog:   deps.Catalog,
		rules:     deps.Rules,
		formatter: deps.Formatter,
		store:     deps.Store,
		channel:   deps.Channel,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
		cart:      c,
		builder:   special.NewBuilder(deps.Rules),
		order:     orders.New(c, deps.Codes),
		linkBase:  deps.DeepLinkBase,
		recipient: deps.Recipient,
		now:       time.Now,
	}
	s.client = newDebouncer[clientInput](deps.ClientDebounce, s.fireClient)
	s.lastActivity = s.now()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// LastActivity reports when the session last handled an action.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// View returns the current read snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Close stops the debounce timer; a pending client update is dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client.drop()
}

// Flush applies a pending client update immediately.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushClient()
}

// Dispatch routes a typed action to the matching operation and returns the
// resulting view. Confirmation results leave the session untouched.
func (s *Session) Dispatch(ctx context.Context, action Action) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = s.now()
	ctx = s.logg.WithSessionID(ctx, s.id)
	ctx = s.logg.WithField(ctx, "action", action.Kind.String())

	if err := action.validate(); err != nil {
		return Result{View: s.view()}, err
	}
	if action.mutates() && action.Kind != enums.ActionReset {
		s.pending = nil
	}

	res, err := s.apply(ctx, action)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "session.action_failed")
	} else {
		s.logg.Debug(ctx, "session.action")
	}
	res.View = s.view()
	return res, err
}

// Deliver hands the order to ch instead of the session's default channel.
func (s *Session) Deliver(ctx context.Context, ch delivery.Channel, confirmed bool) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = s.now()
	ctx = s.logg.WithSessionID(ctx, s.id)
	res, err := s.deliver(ctx, ch, confirmed)
	res.View = s.view()
	return res, err
}

func (s *Session) apply(ctx context.Context, a Action) (Result, error) {
	switch a.Kind {
	case enums.ActionSetQuantity:
		s.setQuantity(a.ItemID, a.Quantity)
	case enums.ActionIncrement:
		s.setQuantity(a.ItemID, s.cart.Quantity(a.ItemID)+1)
	case enums.ActionDecrement:
		s.setQuantity(a.ItemID, s.cart.Quantity(a.ItemID)-1)
	case enums.ActionRemoveLine:
		if a.Index != nil {
			s.cart.RemoveLine(*a.Index)
		}
	case enums.ActionSpecialIncrement:
		s.builder.Increment()
	case enums.ActionSpecialDecrement:
		s.builder.Decrement()
	case enums.ActionCommitDraft:
		label := a.SauceLabel
		if label == "" {
			label = s.rules.Label(a.SauceKey)
		}
		if _, err := s.builder.CommitDraft(a.SauceKey, label); err != nil {
			return Result{}, err
		}
	case enums.ActionRemoveDraft:
		s.builder.RemoveDraft(a.DraftID)
	case enums.ActionFinalizeSpecial:
		s.builder.FinalizeTo(s.cart)
	case enums.ActionUpdateClient:
		s.updateClient(a.Name, a.Phone)
	case enums.ActionUpdateNotes:
		s.order.SetNotes(a.Notes)
	case enums.ActionSave:
		return s.save(ctx, a.Confirmed)
	case enums.ActionPrepareDelivery:
		return s.prepareDelivery(a.Confirmed)
	case enums.ActionConfirmDelivery:
		return s.confirmDelivered(ctx, s.channel.Protocol())
	case enums.ActionAbortDelivery:
		return s.abortDelivered(ctx, s.channel.Protocol(), nil)
	case enums.ActionDeliver:
		return s.deliver(ctx, s.channel, a.Confirmed)
	case enums.ActionReset:
		return s.reset(a.Confirmed), nil
	}
	return Result{}, nil
}

// setQuantity ignores ids missing from the catalog.
func (s *Session) setQuantity(itemID string, quantity int) {
	item, ok := s.catalog.Lookup(itemID)
	if !ok {
		return
	}
	s.cart.SetQuantity(cart.Item{ID: item.ID, Name: item.Name, UnitPrice: item.UnitPrice}, quantity)
}

func (s *Session) updateClient(name, phone string) {
	in := clientInput{name: name, phone: phone}
	if !s.client.push(in) {
		s.order.SetClient(in.name, in.phone)
	}
}

// fireClient runs on the timer goroutine.
func (s *Session) fireClient(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in, ok := s.client.takeIf(gen); ok {
		s.order.SetClient(in.name, in.phone)
	}
}

func (s *Session) flushClient() {
	if in, ok := s.client.take(); ok {
		s.order.SetClient(in.name, in.phone)
	}
}

// Save validates and persists the order. A store failure keeps every piece
// of session state, including the assigned code.
func (s *Session) save(ctx context.Context, confirmed bool) (Result, error) {
	s.flushClient()
	check, err := s.order.Validate()
	if err != nil {
		return Result{}, err
	}
	if check.ConfirmationRequired && !confirmed {
		return Result{Confirmation: missingClient()}, nil
	}

	snap := s.order.Commit()
	ctx = s.logg.WithOrderCode(ctx, snap.Code)
	err = s.store.Save(ctx, snap)
	s.metrics.ObserveSave(err)
	if err != nil {
		s.logg.Error(ctx, "order save failed", err)
		if pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			code := s.order.ReissueCode()
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, fmt.Sprintf("order code %s is taken; saving again uses %s", snap.Code, code)).
				WithDetails(map[string]any{"code": code})
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("saving order %s", snap.Code))
	}
	return Result{Saved: &snap}, nil
}

// prepareDelivery is the first phase of a hand-off: the order is validated,
// coded and formatted, and the message is held until confirmed or aborted.
func (s *Session) prepareDelivery(confirmed bool) (Result, error) {
	s.flushClient()
	check, err := s.order.Validate()
	if err != nil {
		return Result{}, err
	}
	if !confirmed {
		if check.ConfirmationRequired {
			return Result{Confirmation: missingClient()}, nil
		}
		return Result{Confirmation: &Confirmation{
			Reason:  enums.ConfirmationSendOrder,
			Message: "¿Está seguro de enviar el pedido? Revise que toda la información sea correcta.",
		}}, nil
	}

	s.order.EnsureCode()
	if err := s.stage(); err != nil {
		return Result{}, err
	}
	prepared := *s.pending
	return Result{Delivery: &prepared}, nil
}

// stage formats the current snapshot into the pending delivery.
func (s *Session) stage() error {
	snap := s.order.Snapshot()
	text, err := s.formatter.Format(snap)
	if err != nil {
		return err
	}
	s.pending = &PreparedDelivery{
		Code:    snap.Code,
		Message: text,
		Link:    delivery.Link(s.linkBase, s.recipient, text),
		Total:   snap.Total,
	}
	return nil
}

// confirmDelivered records the sent order and starts a fresh one.
func (s *Session) confirmDelivered(ctx context.Context, protocol string) (Result, error) {
	if s.pending == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeStateConflict, "no delivery is pending")
	}
	delivered := *s.pending
	ctx = s.logg.WithOrderCode(ctx, delivered.Code)

	sent := s.order.SentSnapshot()
	if err := s.store.Save(ctx, sent); err != nil {
		s.logg.Error(ctx, "recording sent order failed", err)
	}
	s.metrics.ObserveDelivered(protocol, delivered.Total)
	s.logg.Info(s.logg.WithField(ctx, "protocol", protocol), "order.delivered")

	s.resetAll()
	return Result{Delivered: &delivered}, nil
}

// abortDelivered keeps the order and returns the message for manual copy.
func (s *Session) abortDelivered(ctx context.Context, protocol string, cause error) (Result, error) {
	if s.pending == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeStateConflict, "no delivery is pending")
	}
	failed := *s.pending
	s.pending = nil
	s.metrics.ObserveDeliveryFailed(protocol)

	details := map[string]any{
		"code":     failed.Code,
		"message":  failed.Message,
		"link":     failed.Link,
		"protocol": protocol,
	}
	msg := "No se pudo confirmar el envío. Copie el mensaje manualmente."
	if cause != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDeliveryFailed, cause, msg).WithDetails(details)
	}
	return Result{}, pkgerrors.New(pkgerrors.CodeDeliveryFailed, msg).WithDetails(details)
}

// deliver runs both phases against ch.
func (s *Session) deliver(ctx context.Context, ch delivery.Channel, confirmed bool) (Result, error) {
	res, err := s.prepareDelivery(confirmed)
	if err != nil || res.NeedsConfirmation() {
		return res, err
	}

	env := delivery.Envelope{
		OrderID:  s.order.ID(),
		Code:     s.pending.Code,
		Message:  s.pending.Message,
		Total:    s.pending.Total,
		Client:   s.order.Client().Name,
		Prepared: s.now(),
	}
	if err := ch.Send(ctx, env); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"order_code": env.Code,
			"protocol":   ch.Protocol(),
			"error":      err.Error(),
		}), "order hand-off not confirmed")
		if pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			// Another order holds this code; the retry goes out under a new one.
			s.order.ReissueCode()
			if stageErr := s.stage(); stageErr != nil {
				s.pending = nil
				return Result{}, stageErr
			}
		}
		return s.abortDelivered(ctx, ch.Protocol(), err)
	}
	return s.confirmDelivered(ctx, ch.Protocol())
}

func (s *Session) reset(confirmed bool) Result {
	if s.hasWork() && !confirmed {
		return Result{Confirmation: &Confirmation{
			Reason:  enums.ConfirmationDiscardOrder,
			Message: "¿Está seguro de comenzar un nuevo pedido? Se perderán todos los datos no guardados.",
		}}
	}
	s.resetAll()
	return Result{}
}

func (s *Session) hasWork() bool {
	return s.order.HasWork() || s.builder.HasDrafts() || s.builder.Quantity() > 0 || s.client.hasPending()
}

func (s *Session) resetAll() {
	s.client.drop()
	s.builder.Reset()
	s.order.Reset()
	s.pending = nil
}

func (s *Session) view() View {
	snap := s.order.Snapshot()
	v := View{
		ID:            s.id,
		Lines:         snap.Lines,
		Total:         snap.Total,
		ItemCount:     s.cart.ItemCount(),
		Special:       s.builder.Snapshot(),
		Client:        snap.Client,
		ClientPending: s.client.hasPending(),
		Notes:         snap.Notes,
		Code:          snap.Code,
		Status:        snap.Status,
	}
	if s.pending != nil {
		pending := *s.pending
		v.Delivery = &pending
	}
	return v
}

func missingClient() *Confirmation {
	return &Confirmation{
		Reason:  enums.ConfirmationMissingClient,
		Message: "No se han ingresado datos del cliente. ¿Desea continuar?",
	}
}
