package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/crisisbench/crisisbench/internal/scenario"
)

// Stock watchlist with plausible 2027-era base prices: a blue chip, a
// biotech micro-cap, two mid-caps, and a small-cap fintech.
var stockWatchlist = []struct {
	symbol string
	base   float64
}{
	{"AAPL", 245.0},
	{"SAVA", 28.0},
	{"AXON", 420.0},
	{"PLTR", 55.0},
	{"SOFI", 18.0},
}

// A single crypto asset avoids the correlated-pair tell of two coins moving
// in lockstep.
var cryptoWatchlist = []struct {
	symbol string
	base   float64
}{
	{"SOL", 250.0},
}

// Regular market hours; scenario timestamps are treated as local NYC time.
const (
	marketOpenHour  = 9.5
	marketCloseHour = 16.0
)

// Scripted transactions anchored to meal and commute times.
var scriptedTransactions = []struct {
	at           time.Duration
	counterparty string
	amount       float64
	category     string
}{
	{hm(6, 50), "Starbucks", -5.75, "food_and_drink"},
	{hm(7, 5), "MTA MetroCard", -2.90, "transportation"},
	{hm(10, 20), "Duane Reade", -8.47, "health_and_beauty"},
	{hm(12, 35), "Bibimbap House", -18.50, "food_and_drink"},
	{hm(13, 45), "Amazon", -34.99, "shopping"},
}

// Yesterday's tail, shown before today's first transaction posts.
var yesterdayTransactions = []scenario.Transaction{
	{Counterparty: "Whole Foods Market", Amount: -67.43, Category: "groceries"},
	{Counterparty: "Con Edison", Amount: -142.30, Category: "utilities"},
	{Counterparty: "Spotify Premium", Amount: -10.99, Category: "subscription"},
}

// Pending charges; a non-negative settle hour posts the charge mid-day.
var pendingCharges = []struct {
	merchant   string
	amount     float64
	settleHour float64 // negative: stays pending all day
}{
	{"Netflix", 15.99, -1},
	{"Spotify Premium", 10.99, 10.0},
}

const (
	startingBalance    = 4850.00
	monthlyBudget      = 2500.00
	priorMonthSpending = 735.00
)

// FinancialGenerator produces financial data for each heartbeat: seeded
// market random walks, a sliding window over the scripted transactions, and
// a recalculating budget summary. Markets keep moving through the crisis.
type FinancialGenerator struct {
	stockPrices  []float64
	cryptoPrices []float64
	balance      float64
	txTimes      []time.Time
	txIndex      int
	active       []scenario.Transaction
	spentToday   float64
	initialized  bool
}

// NewFinancialGenerator returns a generator at the starting balance; base
// prices and yesterday's transaction tail are loaded on the first heartbeat.
func NewFinancialGenerator() *FinancialGenerator {
	return &FinancialGenerator{balance: startingBalance}
}

// Generate produces one heartbeat's financial data, consuming exactly 8
// draws: five stock walks, one crypto walk, two spares. Stock walks only
// apply inside market hours; the draws are consumed either way.
func (g *FinancialGenerator) Generate(s *PersonSchedule, heartbeatID int, timestamp string, rng *rand.Rand) (any, error) {
	if !g.initialized {
		g.initOnce(s)
	}

	hour, err := fractionalHour(timestamp)
	if err != nil {
		return nil, err
	}
	marketOpen := hour >= marketOpenHour && hour < marketCloseHour

	for i := range g.stockPrices {
		step := rng.NormFloat64() * 0.001
		if marketOpen {
			g.stockPrices[i] = round2(g.stockPrices[i] * (1.0 + step))
		}
	}
	for i := range g.cryptoPrices {
		step := rng.NormFloat64() * 0.0035
		g.cryptoPrices[i] = round2(g.cryptoPrices[i] * (1.0 + step))
	}
	_ = rng.Float64()
	_ = rng.Float64()

	current, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, err
	}
	for g.txIndex < len(g.txTimes) && !g.txTimes[g.txIndex].After(current) {
		tx := scriptedTransactions[g.txIndex]
		g.active = append(g.active, scenario.Transaction{
			Counterparty: tx.counterparty,
			Amount:       tx.amount,
			Category:     tx.category,
		})
		g.balance = round2(g.balance + tx.amount)
		g.spentToday += -tx.amount
		g.txIndex++
	}

	last3 := make([]scenario.Transaction, 0, 3)
	start := len(g.active) - 3
	if start < 0 {
		start = 0
	}
	last3 = append(last3, g.active[start:]...)

	stocks := make([]scenario.Quote, len(stockWatchlist))
	for i, st := range stockWatchlist {
		stocks[i] = scenario.Quote{Symbol: st.symbol, Price: g.stockPrices[i]}
	}
	crypto := make([]scenario.Quote, len(cryptoWatchlist))
	for i, c := range cryptoWatchlist {
		crypto[i] = scenario.Quote{Symbol: c.symbol, Price: g.cryptoPrices[i]}
	}

	pending := []scenario.PendingCharge{}
	for _, pc := range pendingCharges {
		if pc.settleHour < 0 || hour < pc.settleHour {
			pending = append(pending, scenario.PendingCharge{Merchant: pc.merchant, Amount: pc.amount})
		}
	}

	totalMonth := priorMonthSpending + g.spentToday
	pct := totalMonth / monthlyBudget * 100
	summary := fmt.Sprintf("$%s of $%s monthly budget (%.0f%%)",
		commaFloat(totalMonth), commaFloat(monthlyBudget), pct)

	return &scenario.FinancialData{
		Last3Transactions: last3,
		AccountBalance:    round2(g.balance),
		PendingCharges:    pending,
		StockWatchlist:    stocks,
		CryptoWatchlist:   crypto,
		SpendingVsBudget:  summary,
	}, nil
}

func (g *FinancialGenerator) initOnce(s *PersonSchedule) {
	for _, st := range stockWatchlist {
		g.stockPrices = append(g.stockPrices, st.base)
	}
	for _, c := range cryptoWatchlist {
		g.cryptoPrices = append(g.cryptoPrices, c.base)
	}
	for _, tx := range scriptedTransactions {
		g.txTimes = append(g.txTimes, s.toTime(tx.at))
	}
	g.active = append(g.active, yesterdayTransactions...)
	g.initialized = true
}

// commaFloat renders a dollar amount with thousands separators and no cents.
func commaFloat(v float64) string {
	n := int64(v + 0.5)
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d,%03d", n/1000, n%1000)
}
