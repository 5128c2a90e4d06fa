package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cryptomonitor/internal/alerting"
	"cryptomonitor/internal/market"
	"cryptomonitor/internal/portfolio"
)

// Status is the engine lifecycle string shown to the display.
type Status string

const (
	StatusLoading      Status = "Loading"
	StatusRefreshing   Status = "Refreshing"
	StatusSleeping     Status = "Sleeping"
	StatusNoConnection Status = "No internet connection"
)

// Market is the synchronized boundary between the poll worker and
// everything else: it owns the authoritative holdings and alert lists,
// the latest published snapshot, and the status string. Edits apply
// atomically and become visible to the next cycle; the worker always
// reconciles a copy taken once at cycle start.
type Market struct {
	mu sync.RWMutex

	currency    string
	holdings    portfolio.Holdings
	alerts      []alerting.Alert
	snapshot    *portfolio.Snapshot
	listing     market.List
	status      Status
	lastRefresh time.Time
	resetAt     time.Time

	subMu sync.Mutex
	subs  []chan portfolio.Snapshot
}

// New constructs the shared state from the initial configuration.
func New(currency string, holdings portfolio.Holdings, alerts []alerting.Alert) *Market {
	return &Market{
		currency: currency,
		holdings: holdings.Clone(),
		alerts:   append([]alerting.Alert(nil), alerts...),
		status:   StatusLoading,
		resetAt:  time.Now().UTC(),
	}
}

// Currency returns the active display currency.
func (m *Market) Currency() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currency
}

// SetCurrency switches the display currency. Every lot's startup price
// is re-armed so the next successful cycle captures a reference price in
// the new currency.
func (m *Market) SetCurrency(currency string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if currency == m.currency {
		return
	}
	m.currency = currency
	for i := range m.holdings {
		m.holdings[i].PendingStartupCapture = true
	}
}

// CycleInput is the consistent view the worker takes at cycle start.
type CycleInput struct {
	Currency string
	Holdings portfolio.Holdings
	Alerts   []alerting.Alert
	Symbols  []string
}

// BeginCycle snapshots currency, holdings, and alerts in one critical
// section. Symbols is the union of held and alerted coins, in holdings
// order first.
func (m *Market) BeginCycle() CycleInput {
	m.mu.RLock()
	defer m.mu.RUnlock()

	symbols := m.holdings.Symbols()
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		seen[s] = struct{}{}
	}
	for _, a := range m.alerts {
		if _, ok := seen[a.Coin]; ok {
			continue
		}
		seen[a.Coin] = struct{}{}
		symbols = append(symbols, a.Coin)
	}

	return CycleInput{
		Currency: m.currency,
		Holdings: m.holdings.Clone(),
		Alerts:   append([]alerting.Alert(nil), m.alerts...),
		Symbols:  symbols,
	}
}

// CommitCycle publishes the results of a successful cycle: startup
// captures are written back to the authoritative lots that still await
// one, fired alerts are removed in a single batch, and the snapshot and
// listing views are replaced. Edits made while the cycle ran are
// preserved.
func (m *Market) CommitCycle(snapshot portfolio.Snapshot, captured portfolio.Holdings, fired []alerting.Fired, listing market.List) {
	m.mu.Lock()

	for _, c := range captured {
		if c.PendingStartupCapture {
			continue
		}
		for i := range m.holdings {
			if m.holdings[i].Key() == c.Key() && m.holdings[i].PendingStartupCapture {
				m.holdings[i].StartupPrice = c.StartupPrice
				m.holdings[i].PendingStartupCapture = false
			}
		}
	}

	for _, f := range fired {
		m.alerts = removeFirstAlert(m.alerts, f.Alert)
	}

	snap := snapshot
	m.snapshot = &snap
	if listing != nil {
		m.listing = listing
	}
	m.lastRefresh = time.Now().UTC()
	m.mu.Unlock()

	m.publish(snap)
}

// Holdings returns a copy of the authoritative lot list.
func (m *Market) Holdings() portfolio.Holdings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.holdings.Clone()
}

// AddHolding appends a new zero-amount lot for the coin, assigning the
// next contiguous lot index and arming the startup price capture. The
// symbol is canonicalized first; once a market listing has been fetched
// the symbol must exist in it.
func (m *Market) AddHolding(coin string) (portfolio.Holding, error) {
	coin = portfolio.NormalizeSymbol(coin)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.listing) > 0 && !m.listing.Contains(coin) {
		return portfolio.Holding{}, fmt.Errorf("coin %s not found in market listing", coin)
	}

	lot := portfolio.Holding{
		Coin:                  coin,
		LotIndex:              m.holdings.NextLotIndex(coin),
		AmountBought:          decimal.Zero,
		AmountPaid:            decimal.Zero,
		StartupPrice:          decimal.Zero,
		PendingStartupCapture: true,
	}
	m.holdings = append(m.holdings, lot)
	return lot, nil
}

// RemoveHolding deletes one lot and compacts the remaining lot indices.
func (m *Market) RemoveHolding(key portfolio.Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.holdings.Find(key); !ok {
		return false
	}
	m.holdings = m.holdings.Remove(key)
	return true
}

// SetAmounts updates the bought and paid amounts of one lot.
func (m *Market) SetAmounts(key portfolio.Key, bought, paid decimal.Decimal) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.holdings {
		if m.holdings[i].Key() == key {
			m.holdings[i].AmountBought = bought
			m.holdings[i].AmountPaid = paid
			return true
		}
	}
	return false
}

// ReplaceHoldings swaps in a whole lot list, e.g. when loading a saved
// portfolio. Lot indices are compacted and startup captures re-armed.
func (m *Market) ReplaceHoldings(holdings portfolio.Holdings) {
	m.mu.Lock()
	defer m.mu.Unlock()

	replacement := holdings.Clone().CompactLotIndexes()
	for i := range replacement {
		replacement[i].PendingStartupCapture = true
	}
	m.holdings = replacement
	m.resetAt = time.Now().UTC()
}

// Alerts returns a copy of the active alert set.
func (m *Market) Alerts() []alerting.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]alerting.Alert(nil), m.alerts...)
}

// AddAlert registers a price trigger.
func (m *Market) AddAlert(alert alerting.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
}

// RemoveAlert deletes the first alert equal to the given one.
func (m *Market) RemoveAlert(alert alerting.Alert) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.alerts)
	m.alerts = removeFirstAlert(m.alerts, alert)
	return len(m.alerts) != before
}

// Status returns the current lifecycle string.
func (m *Market) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// SetStatus updates the lifecycle string.
func (m *Market) SetStatus(status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// Snapshot returns the most recently committed snapshot.
func (m *Market) Snapshot() (portfolio.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return portfolio.Snapshot{}, false
	}
	return *m.snapshot, true
}

// Listing returns the latest market-listing view.
func (m *Market) Listing() market.List {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listing
}

// CoinExists checks a symbol against the latest market listing.
func (m *Market) CoinExists(symbol string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listing.Contains(market.CanonicalSymbol(symbol))
}

// LastRefresh returns the time of the last committed cycle.
func (m *Market) LastRefresh() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRefresh
}

// ResetAt returns the time holdings were last loaded or replaced.
func (m *Market) ResetAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resetAt
}

// Subscribe registers a snapshot consumer. Delivery never blocks the
// worker: when a subscriber's buffer is full the oldest snapshot is
// dropped in favour of the new one.
func (m *Market) Subscribe(buffer int) <-chan portfolio.Snapshot {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan portfolio.Snapshot, buffer)

	m.subMu.Lock()
	m.subs = append(m.subs, ch)
	m.subMu.Unlock()
	return ch
}

func (m *Market) publish(snapshot portfolio.Snapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for _, ch := range m.subs {
		for {
			select {
			case ch <- snapshot:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

func removeFirstAlert(alerts []alerting.Alert, target alerting.Alert) []alerting.Alert {
	for i, a := range alerts {
		if alertsEqual(a, target) {
			return append(alerts[:i:i], alerts[i+1:]...)
		}
	}
	return alerts
}

func alertsEqual(a, b alerting.Alert) bool {
	return a.Coin == b.Coin &&
		a.Currency == b.Currency &&
		a.Operator == b.Operator &&
		a.ThresholdPrice.Equal(b.ThresholdPrice)
}
