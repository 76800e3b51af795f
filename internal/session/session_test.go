package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrealas/orderdesk/internal/delivery"
	"github.com/entrealas/orderdesk/internal/orders"
	"github.com/entrealas/orderdesk/pkg/enums"
	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
)

type memoryStore struct {
	mu    sync.Mutex
	saved []orders.Snapshot
	err   error
}

func (m *memoryStore) Save(_ context.Context, snap orders.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, snap)
	return nil
}

type stubChannel struct {
	err  error
	sent []delivery.Envelope
}

func (c *stubChannel) Protocol() string { return "stub" }

func (c *stubChannel) Send(_ context.Context, env delivery.Envelope) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, env)
	return nil
}

func sequenceCodes(draws ...int) *orders.CodeGenerator {
	i := 0
	return orders.NewCodeGenerator("EA").WithSource(
		func() time.Time { return time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC) },
		func(int) int {
			v := draws[i%len(draws)]
			i++
			return v
		},
	)
}

func newTestSession(t *testing.T) (*Session, *memoryStore, *stubChannel) {
	t.Helper()
	store := &memoryStore{}
	ch := &stubChannel{}
	s := New("test-session", Deps{
		Store:   store,
		Channel: ch,
		Codes:   sequenceCodes(1111, 2222, 3333),
	})
	return s, store, ch
}

// sharedPublisher stands in for one redis instance used by several sessions.
type sharedPublisher struct {
	mu        sync.Mutex
	values    map[string]string
	published []string
}

func newSharedPublisher() *sharedPublisher {
	return &sharedPublisher{values: map[string]string{}}
}

func (p *sharedPublisher) Publish(_ context.Context, _ string, payload any) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, payload.(string))
	return 1, nil
}

func (p *sharedPublisher) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.values[key]; ok {
		return false, nil
	}
	p.values[key] = value.(string)
	return true, nil
}

func (p *sharedPublisher) Get(_ context.Context, key string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok, nil
}

func (p *sharedPublisher) Del(_ context.Context, keys ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		delete(p.values, k)
	}
	return nil
}

func (p *sharedPublisher) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func lineIndex(i int) *int {
	return &i
}

func dispatch(t *testing.T, s *Session, a Action) Result {
	t.Helper()
	res, err := s.Dispatch(context.Background(), a)
	require.NoError(t, err)
	return res
}

func TestEndToEndDeliveryResetsOrder(t *testing.T) {
	s, store, ch := newTestSession(t)

	res := dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "alitas-1", Quantity: 2})
	require.True(t, res.View.Total.Equal(decimal.NewFromInt(170)))

	dispatch(t, s, Action{Kind: enums.ActionUpdateClient, Name: "Ana", Phone: "555"})

	res = dispatch(t, s, Action{Kind: enums.ActionDeliver})
	require.NotNil(t, res.Confirmation)
	assert.Equal(t, enums.ConfirmationSendOrder, res.Confirmation.Reason)
	assert.Empty(t, res.View.Code, "confirmation must not assign a code")

	res = dispatch(t, s, Action{Kind: enums.ActionDeliver, Confirmed: true})
	require.NotNil(t, res.Delivered)
	first := res.Delivered.Code
	assert.Equal(t, "EA-1026-2111", first)

	require.Len(t, ch.sent, 1)
	assert.Contains(t, ch.sent[0].Message, "🍗 2x Alitas Mango Habanero - $170.00")

	assert.Empty(t, res.View.Lines)
	assert.True(t, res.View.Total.IsZero())
	assert.Empty(t, res.View.Code)
	assert.Equal(t, orders.Client{}, res.View.Client)

	require.Len(t, store.saved, 1)
	assert.Equal(t, enums.OrderStatusSent, store.saved[0].Status)

	dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "alitas-1", Quantity: 1})
	res = dispatch(t, s, Action{Kind: enums.ActionPrepareDelivery, Confirmed: true})
	require.NotNil(t, res.Delivery)
	assert.NotEqual(t, first, res.Delivery.Code)
}

func TestDeliveryFailurePreservesState(t *testing.T) {
	s, _, ch := newTestSession(t)
	ch.err = errors.New("no route")

	dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "papas-1", Quantity: 3})
	dispatch(t, s, Action{Kind: enums.ActionUpdateNotes, Notes: "sin sal"})

	res, err := s.Dispatch(context.Background(), Action{Kind: enums.ActionDeliver, Confirmed: true})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDeliveryFailed))
	assert.ErrorIs(t, err, ch.err)

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details["message"], "📝 *Notas:* sin sal")

	require.Len(t, res.View.Lines, 1)
	assert.Equal(t, 3, res.View.Lines[0].Quantity)
	assert.Equal(t, "sin sal", res.View.Notes)
	assert.NotEmpty(t, res.View.Code)
	assert.Nil(t, res.View.Delivery)
}

func TestTwoPhaseDelivery(t *testing.T) {
	s, store, _ := newTestSession(t)
	dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "alitas-2", Quantity: 1})

	res := dispatch(t, s, Action{Kind: enums.ActionPrepareDelivery})
	require.NotNil(t, res.Confirmation)
	assert.Equal(t, enums.ConfirmationMissingClient, res.Confirmation.Reason)
	assert.Nil(t, res.View.Delivery)

	res = dispatch(t, s, Action{Kind: enums.ActionPrepareDelivery, Confirmed: true})
	require.NotNil(t, res.Delivery)
	assert.Contains(t, res.Delivery.Link, "https://wa.me/?text=")
	require.NotNil(t, res.View.Delivery)

	_, err := s.Dispatch(context.Background(), Action{Kind: enums.ActionAbortDelivery})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDeliveryFailed))
	assert.Len(t, s.View().Lines, 1)

	_, err = s.Dispatch(context.Background(), Action{Kind: enums.ActionConfirmDelivery})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))

	dispatch(t, s, Action{Kind: enums.ActionPrepareDelivery, Confirmed: true})
	res = dispatch(t, s, Action{Kind: enums.ActionConfirmDelivery})
	require.NotNil(t, res.Delivered)
	assert.Empty(t, res.View.Lines)
	require.Len(t, store.saved, 1)
}

func TestMutationDiscardsPendingDelivery(t *testing.T) {
	s, _, _ := newTestSession(t)
	dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "alitas-1", Quantity: 1})
	dispatch(t, s, Action{Kind: enums.ActionPrepareDelivery, Confirmed: true})
	require.NotNil(t, s.View().Delivery)

	res := dispatch(t, s, Action{Kind: enums.ActionIncrement, ItemID: "alitas-1"})
	assert.Nil(t, res.View.Delivery)

	_, err := s.Dispatch(context.Background(), Action{Kind: enums.ActionConfirmDelivery})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	assert.Len(t, s.View().Lines, 1)
}

func TestSaveFlow(t *testing.T) {
	s, store, _ := newTestSession(t)

	_, err := s.Dispatch(context.Background(), Action{Kind: enums.ActionSave})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "bebidas-1", Quantity: 2})
	res := dispatch(t, s, Action{Kind: enums.ActionSave})
	require.NotNil(t, res.Confirmation)
	assert.Empty(t, store.saved)
	assert.Empty(t, res.View.Code)

	res = dispatch(t, s, Action{Kind: enums.ActionSave, Confirmed: true})
	require.NotNil(t, res.Saved)
	assert.Equal(t, enums.OrderStatusPending, res.Saved.Status)
	assert.Equal(t, res.Saved.Code, res.View.Code)
	require.Len(t, store.saved, 1)
	assert.Len(t, res.View.Lines, 1, "save keeps the working order")
}

func TestSaveStoreFailureKeepsState(t *testing.T) {
	s, store, _ := newTestSession(t)
	store.err = errors.New("disk full")

	dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "bebidas-1", Quantity: 2})
	dispatch(t, s, Action{Kind: enums.ActionUpdateClient, Name: "Luis"})

	res, err := s.Dispatch(context.Background(), Action{Kind: enums.ActionSave})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.NotEmpty(t, res.View.Code)
	assert.Len(t, res.View.Lines, 1)
	assert.Equal(t, "Luis", res.View.Client.Name)
}

func TestSaveCodeConflictReissuesCode(t *testing.T) {
	s, store, _ := newTestSession(t)
	store.err = pkgerrors.Wrap(pkgerrors.CodeStateConflict, orders.ErrCodeTaken, "order code already stored")

	dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "bebidas-1", Quantity: 2})
	res, err := s.Dispatch(context.Background(), Action{Kind: enums.ActionSave, Confirmed: true})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	assert.ErrorIs(t, err, orders.ErrCodeTaken)
	assert.Equal(t, "EA-1026-3222", res.View.Code)
	assert.Len(t, res.View.Lines, 1)

	store.err = nil
	res = dispatch(t, s, Action{Kind: enums.ActionSave, Confirmed: true})
	require.NotNil(t, res.Saved)
	assert.Equal(t, "EA-1026-3222", res.Saved.Code)
	assert.NotEmpty(t, res.Saved.ID)
}

func TestCollidingCodesDoNotDropSecondOrder(t *testing.T) {
	pub := newSharedPublisher()
	ch := delivery.NewRedis(pub, "orders", time.Hour)

	ana := New("ana", Deps{Store: &memoryStore{}, Channel: ch, Codes: sequenceCodes(1234, 5678)})
	luis := New("luis", Deps{Store: &memoryStore{}, Channel: ch, Codes: sequenceCodes(1234, 5678)})

	dispatch(t, ana, Action{Kind: enums.ActionSetQuantity, ItemID: "alitas-1", Quantity: 2})
	dispatch(t, ana, Action{Kind: enums.ActionUpdateClient, Name: "Ana"})
	dispatch(t, luis, Action{Kind: enums.ActionSetQuantity, ItemID: "papas-1", Quantity: 1})
	dispatch(t, luis, Action{Kind: enums.ActionUpdateClient, Name: "Luis"})

	res := dispatch(t, ana, Action{Kind: enums.ActionDeliver, Confirmed: true})
	require.NotNil(t, res.Delivered)
	assert.Equal(t, "EA-1026-2234", res.Delivered.Code)

	res, err := luis.Dispatch(context.Background(), Action{Kind: enums.ActionDeliver, Confirmed: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, delivery.ErrCodeInUse)
	assert.Nil(t, res.Delivered)
	require.Len(t, res.View.Lines, 1)
	assert.Equal(t, "Luis", res.View.Client.Name)
	assert.Equal(t, "EA-1026-6678", res.View.Code)
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "EA-1026-6678", details["code"])
	assert.Len(t, pub.published, 1)

	res = dispatch(t, luis, Action{Kind: enums.ActionDeliver, Confirmed: true})
	require.NotNil(t, res.Delivered)
	assert.Equal(t, "EA-1026-6678", res.Delivered.Code)
	assert.Empty(t, res.View.Lines)
	assert.Len(t, pub.published, 2)
}

func TestUnknownItemIsIgnored(t *testing.T) {
	s, _, _ := newTestSession(t)

	res := dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "nope-9", Quantity: 4})
	assert.Empty(t, res.View.Lines)
	res = dispatch(t, s, Action{Kind: enums.ActionIncrement, ItemID: "nope-9"})
	assert.Empty(t, res.View.Lines)
}

func TestIncrementDecrementAndRemove(t *testing.T) {
	s, _, _ := newTestSession(t)

	dispatch(t, s, Action{Kind: enums.ActionIncrement, ItemID: "papas-3"})
	dispatch(t, s, Action{Kind: enums.ActionIncrement, ItemID: "papas-3"})
	res := dispatch(t, s, Action{Kind: enums.ActionDecrement, ItemID: "papas-3"})
	require.Len(t, res.View.Lines, 1)
	assert.Equal(t, 1, res.View.Lines[0].Quantity)

	res = dispatch(t, s, Action{Kind: enums.ActionRemoveLine, Index: lineIndex(5)})
	assert.Len(t, res.View.Lines, 1)

	res = dispatch(t, s, Action{Kind: enums.ActionDecrement, ItemID: "papas-3"})
	assert.Empty(t, res.View.Lines)
	res = dispatch(t, s, Action{Kind: enums.ActionDecrement, ItemID: "papas-3"})
	assert.Empty(t, res.View.Lines)
}

func TestRemoveLineWithoutIndexKeepsLines(t *testing.T) {
	s, _, _ := newTestSession(t)
	dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "alitas-1", Quantity: 2})
	dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "papas-1", Quantity: 1})
	dispatch(t, s, Action{Kind: enums.ActionPrepareDelivery, Confirmed: true})

	res, err := s.Dispatch(context.Background(), Action{Kind: enums.ActionRemoveLine})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	require.Len(t, res.View.Lines, 2)
	assert.Equal(t, "alitas-1", res.View.Lines[0].ID)
	assert.NotNil(t, res.View.Delivery, "a rejected action keeps the prepared message")

	res = dispatch(t, s, Action{Kind: enums.ActionRemoveLine, Index: lineIndex(0)})
	require.Len(t, res.View.Lines, 1)
	assert.Equal(t, "papas-1", res.View.Lines[0].ID)
}

func TestSpecialOrderFlow(t *testing.T) {
	s, _, _ := newTestSession(t)

	_, err := s.Dispatch(context.Background(), Action{Kind: enums.ActionCommitDraft, SauceKey: "bbq"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	for i := 0; i < 3; i++ {
		dispatch(t, s, Action{Kind: enums.ActionSpecialIncrement})
	}
	res := dispatch(t, s, Action{Kind: enums.ActionCommitDraft, SauceKey: "mango-habanero"})
	require.Len(t, res.View.Special.Drafts, 1)
	draft := res.View.Special.Drafts[0]
	assert.Equal(t, "Mango Habanero", draft.SauceLabel)
	assert.True(t, draft.UnitPrice.Equal(decimal.NewFromInt(30)))
	assert.True(t, res.View.Special.Total.Equal(decimal.NewFromInt(90)))
	assert.Zero(t, res.View.Special.Quantity)

	dispatch(t, s, Action{Kind: enums.ActionSpecialIncrement})
	dispatch(t, s, Action{Kind: enums.ActionSpecialIncrement})
	res = dispatch(t, s, Action{Kind: enums.ActionCommitDraft, SauceKey: "bbq"})
	require.Len(t, res.View.Special.Drafts, 2)

	res = dispatch(t, s, Action{Kind: enums.ActionRemoveDraft, DraftID: draft.ID})
	require.Len(t, res.View.Special.Drafts, 1)

	res = dispatch(t, s, Action{Kind: enums.ActionFinalizeSpecial})
	require.Len(t, res.View.Lines, 1)
	line := res.View.Lines[0]
	assert.True(t, line.Composite)
	assert.Equal(t, "Pedido Especial: 2 BBQ", line.Name)
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(50)))
	assert.Empty(t, res.View.Special.Drafts)

	res = dispatch(t, s, Action{Kind: enums.ActionFinalizeSpecial})
	assert.Len(t, res.View.Lines, 1)
}

func TestResetAsksBeforeDiscardingWork(t *testing.T) {
	s, _, _ := newTestSession(t)

	res := dispatch(t, s, Action{Kind: enums.ActionReset})
	assert.Nil(t, res.Confirmation, "empty session resets without asking")

	dispatch(t, s, Action{Kind: enums.ActionSpecialIncrement})
	res = dispatch(t, s, Action{Kind: enums.ActionReset})
	require.NotNil(t, res.Confirmation)
	assert.Equal(t, enums.ConfirmationDiscardOrder, res.Confirmation.Reason)
	assert.Equal(t, 1, res.View.Special.Quantity)

	res = dispatch(t, s, Action{Kind: enums.ActionReset, Confirmed: true})
	assert.Nil(t, res.Confirmation)
	assert.Zero(t, res.View.Special.Quantity)
}

func TestConfirmationResultsDoNotMutate(t *testing.T) {
	s, store, _ := newTestSession(t)
	dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "alitas-1", Quantity: 1})
	before := s.View()

	for _, kind := range []enums.ActionKind{enums.ActionSave, enums.ActionPrepareDelivery, enums.ActionDeliver, enums.ActionReset} {
		res := dispatch(t, s, Action{Kind: kind})
		require.NotNil(t, res.Confirmation, "kind %s", kind)
		assert.Equal(t, before, res.View, "kind %s", kind)
	}
	assert.Empty(t, store.saved)
}

func TestUnknownActionKind(t *testing.T) {
	s, _, _ := newTestSession(t)
	_, err := s.Dispatch(context.Background(), Action{Kind: "explode"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestDeliverViaExplicitChannel(t *testing.T) {
	s, _, def := newTestSession(t)
	other := &stubChannel{}

	dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "alitas-1", Quantity: 1})
	dispatch(t, s, Action{Kind: enums.ActionUpdateClient, Name: "Ana"})

	res, err := s.Deliver(context.Background(), other, true)
	require.NoError(t, err)
	require.NotNil(t, res.Delivered)
	assert.Len(t, other.sent, 1)
	assert.Empty(t, def.sent)
	assert.Empty(t, res.View.Lines)
}

func TestDefaultChannelWithoutOpenerFallsBackToManualCopy(t *testing.T) {
	s := New("s", Deps{Store: &memoryStore{}})
	dispatch(t, s, Action{Kind: enums.ActionSetQuantity, ItemID: "alitas-1", Quantity: 1})

	_, err := s.Dispatch(context.Background(), Action{Kind: enums.ActionDeliver, Confirmed: true})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDeliveryFailed))
	assert.Len(t, s.View().Lines, 1)
}
