package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/ostium-bot/internal/monitor"
	"github.com/rovshanmuradov/ostium-bot/internal/ostium"
	"github.com/rovshanmuradov/ostium-bot/internal/telegram"
)

const testWallet = "0x7c930969fcf3e5a5c78bcf2e1cefda3f53e3c8fd"

// botAPIStub fakes the two Bot API methods the command loop uses.
type botAPIStub struct {
	mu          sync.Mutex
	sent        []string
	updates     []string // scripted getUpdates result payloads, one per call
	updateCalls int
	lastOffset  string
	onDrained   func() // called when the update script runs out
}

func (s *botAPIStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			s.mu.Lock()
			s.sent = append(s.sent, r.PostForm.Get("text"))
			s.mu.Unlock()
			fmt.Fprint(w, `{"ok":true,"result":{}}`)
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			s.mu.Lock()
			s.lastOffset = r.PostForm.Get("offset")
			var payload string
			if s.updateCalls < len(s.updates) {
				payload = s.updates[s.updateCalls]
			} else {
				payload = `[]`
				if s.onDrained != nil {
					s.onDrained()
				}
			}
			s.updateCalls++
			s.mu.Unlock()
			fmt.Fprintf(w, `{"ok":true,"result":%s}`, payload)
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	}
}

func (s *botAPIStub) allSent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

// fakeSource is a scriptable ostium.Source.
type fakeSource struct {
	positions    []ostium.Position
	positionsErr error
}

func (f *fakeSource) OpenPositions(context.Context, string) ([]ostium.Position, error) {
	return f.positions, f.positionsErr
}

func (f *fakeSource) RecentHistory(context.Context, string, int) ([]ostium.ClosureRecord, error) {
	return nil, nil
}

func (f *fakeSource) PairMidPrice(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// memStore is an in-memory storage.SubscriberStore.
type memStore struct {
	mu  sync.Mutex
	set map[int64]struct{}
}

func newMemStore() *memStore { return &memStore{set: make(map[int64]struct{})} }

func (m *memStore) Add(chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.set[chatID]; ok {
		return false, nil
	}
	m.set[chatID] = struct{}{}
	return true, nil
}

func (m *memStore) Remove(chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.set[chatID]; !ok {
		return false, nil
	}
	delete(m.set, chatID)
	return true, nil
}

func (m *memStore) Contains(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.set[chatID]
	return ok
}

func (m *memStore) All() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.set))
	for id := range m.set {
		ids = append(ids, id)
	}
	return ids
}

func (m *memStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.set)
}

func newTestCommands(t *testing.T, stub *botAPIStub, store *memStore, source *fakeSource) *Commands {
	t.Helper()
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	tg := telegram.NewClient(telegram.ClientConfig{
		Token:   "test-token",
		BaseURL: srv.URL,
		Logger:  logger,
	})
	return NewCommands(tg, store, source, monitor.NewFormatter(testWallet, logger), testWallet, logger)
}

func testPosition() ostium.Position {
	return ostium.Position{
		Pair:       ostium.Pair{ID: "1", From: "XAU", To: "USD"},
		Index:      "0",
		IsBuy:      true,
		Collateral: decimal.NewFromInt(100_000_000),
		Notional:   decimal.NewFromInt(2_500_000_000),
		OpenPrice:  decimal.RequireFromString("2650000000000000000000"),
		Leverage:   decimal.NewFromInt(2500),
	}
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"/start", "/start"},
		{"/start@ostium_watch_bot", "/start"},
		{"/status extra words", "/status"},
		{"  /stop  ", "/stop"},
		{"hello", ""},
		{"", ""},
		{"start", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseCommand(tc.text), "text %q", tc.text)
	}
}

func TestStartSubscribesAndShowsPositions(t *testing.T) {
	stub := &botAPIStub{}
	store := newMemStore()
	source := &fakeSource{positions: []ostium.Position{testPosition()}}
	c := newTestCommands(t, stub, store, source)

	c.handle(context.Background(), &telegram.Message{Text: "/start", Chat: telegram.Chat{ID: 42}})

	assert.True(t, store.Contains(42))
	sent := stub.allSent()
	require.Len(t, sent, 3)
	assert.Contains(t, sent[0], "now subscribed")
	assert.Contains(t, sent[0], testWallet)
	assert.Contains(t, sent[1], "Current Open Positions (1)")
	assert.Contains(t, sent[2], "OPEN POSITION")
	assert.Contains(t, sent[2], "XAU/USD")
}

func TestStartWhenAlreadySubscribed(t *testing.T) {
	stub := &botAPIStub{}
	store := newMemStore()
	_, err := store.Add(42)
	require.NoError(t, err)
	c := newTestCommands(t, stub, store, &fakeSource{})

	c.handle(context.Background(), &telegram.Message{Text: "/start", Chat: telegram.Chat{ID: 42}})

	sent := stub.allSent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0], "already subscribed")
	assert.Contains(t, sent[1], "No open positions")
}

func TestStopUnsubscribes(t *testing.T) {
	stub := &botAPIStub{}
	store := newMemStore()
	_, err := store.Add(42)
	require.NoError(t, err)
	c := newTestCommands(t, stub, store, &fakeSource{})

	c.handle(context.Background(), &telegram.Message{Text: "/stop", Chat: telegram.Chat{ID: 42}})
	assert.False(t, store.Contains(42))
	sent := stub.allSent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "unsubscribed")

	// A second /stop reports the not-subscribed state.
	c.handle(context.Background(), &telegram.Message{Text: "/stop", Chat: telegram.Chat{ID: 42}})
	sent = stub.allSent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1], "not subscribed")
}

func TestStatusFetchFailureDegrades(t *testing.T) {
	stub := &botAPIStub{}
	c := newTestCommands(t, stub, newMemStore(), &fakeSource{positionsErr: assert.AnError})

	c.handle(context.Background(), &telegram.Message{Text: "/status", Chat: telegram.Chat{ID: 42}})

	sent := stub.allSent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Could not fetch current positions")
}

func TestUnknownCommandIgnored(t *testing.T) {
	stub := &botAPIStub{}
	c := newTestCommands(t, stub, newMemStore(), &fakeSource{})

	c.handle(context.Background(), &telegram.Message{Text: "/help", Chat: telegram.Chat{ID: 42}})
	c.handle(context.Background(), &telegram.Message{Text: "just chatting", Chat: telegram.Chat{ID: 42}})

	assert.Empty(t, stub.allSent())
}

func TestRunAdvancesOffsetAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stub := &botAPIStub{
		updates: []string{
			`[{"update_id":100,"message":{"message_id":1,"text":"/stop","chat":{"id":42}}}]`,
		},
		onDrained: cancel,
	}
	store := newMemStore()
	_, err := store.Add(42)
	require.NoError(t, err)
	c := newTestCommands(t, stub, store, &fakeSource{})

	err = c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.False(t, store.Contains(42))
	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Equal(t, "101", stub.lastOffset, "offset must advance past processed updates")
}
