package reconstruct

import (
	"math"
	"testing"

	"ea-stress-lab/internal/domain"
)

func balanceDeal(time string, amount, balance float64) domain.Deal {
	return domain.Deal{Time: time, Type: domain.DealTypeBalance, Profit: amount, Balance: balance}
}

func openDeal(time, symbol string, side domain.DealType, price float64) domain.Deal {
	return domain.Deal{Time: time, Symbol: symbol, Type: side, Direction: domain.DirectionIn, Volume: 1, Price: price}
}

func closeDeal(time, symbol string, side domain.DealType, price, profit, balance float64) domain.Deal {
	return domain.Deal{Time: time, Symbol: symbol, Type: side, Direction: domain.DirectionOut, Volume: 1, Price: price, Profit: profit, Balance: balance}
}

func TestReconstruct_LIFOPairing(t *testing.T) {
	// Two same-direction opens, one close: the close must pair with the
	// SECOND open, leaving the first pending.
	deals := []domain.Deal{
		openDeal("t1", "EURUSD", domain.DealTypeBuy, 1.1000),
		openDeal("t2", "EURUSD", domain.DealTypeBuy, 1.1010),
		closeDeal("t3", "EURUSD", domain.DealTypeSell, 1.1050, 40, 0),
	}

	result := Reconstruct(deals)

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	trade := result.Trades[0]
	if trade.EntryPrice != 1.1010 {
		t.Errorf("expected LIFO entry 1.1010, got %f", trade.EntryPrice)
	}
	if trade.ExitPrice != 1.1050 {
		t.Errorf("expected exit 1.1050, got %f", trade.ExitPrice)
	}
	if trade.OpenTime != "t2" {
		t.Errorf("expected open time of second open, got %q", trade.OpenTime)
	}
}

func TestReconstruct_LIFOOrderAcrossTwoCloses(t *testing.T) {
	// Opens O1, O2 then closes C1, C2: pairing must be O2-C1, O1-C2.
	deals := []domain.Deal{
		openDeal("o1", "EURUSD", domain.DealTypeBuy, 1.0),
		openDeal("o2", "EURUSD", domain.DealTypeBuy, 2.0),
		closeDeal("c1", "EURUSD", domain.DealTypeSell, 2.5, 0.5, 0),
		closeDeal("c2", "EURUSD", domain.DealTypeSell, 1.5, 0.5, 0),
	}

	result := Reconstruct(deals)

	if len(result.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(result.Trades))
	}
	if result.Trades[0].EntryPrice != 2.0 || result.Trades[1].EntryPrice != 1.0 {
		t.Errorf("expected LIFO order (2.0 then 1.0), got %f then %f",
			result.Trades[0].EntryPrice, result.Trades[1].EntryPrice)
	}
}

func TestReconstruct_BalanceConservation(t *testing.T) {
	deals := []domain.Deal{
		balanceDeal("t0", 10000, 10000),
		openDeal("t1", "EURUSD", domain.DealTypeBuy, 1.10),
		closeDeal("t2", "EURUSD", domain.DealTypeSell, 1.11, 100, 10100),
		openDeal("t3", "EURUSD", domain.DealTypeSell, 1.11),
		closeDeal("t4", "EURUSD", domain.DealTypeBuy, 1.12, -55.5, 10044.5),
	}

	result := Reconstruct(deals)

	if result.InitialBalance != 10000 {
		t.Errorf("expected initial balance 10000, got %f", result.InitialBalance)
	}
	if result.FinalBalance != 10044.5 {
		t.Errorf("expected final balance 10044.5, got %f", result.FinalBalance)
	}

	sum := result.InitialBalance
	for _, trade := range result.Trades {
		sum += trade.NetProfit
	}
	if math.Abs(sum-result.FinalBalance) > 1e-9 {
		t.Errorf("balance not conserved: %f vs %f", sum, result.FinalBalance)
	}
}

func TestReconstruct_NetProfitPrefersBalanceDelta(t *testing.T) {
	// Commission charged outside the deal fields shows up only in the
	// running balance; the balance delta must win over profit arithmetic.
	deals := []domain.Deal{
		balanceDeal("t0", 1000, 1000),
		openDeal("t1", "EURUSD", domain.DealTypeBuy, 1.10),
		closeDeal("t2", "EURUSD", domain.DealTypeSell, 1.11, 100, 1092),
	}

	result := Reconstruct(deals)

	if result.Trades[0].NetProfit != 92 {
		t.Errorf("expected net profit 92 from balance delta, got %f", result.Trades[0].NetProfit)
	}
}

func TestReconstruct_NetProfitFallbackWithoutBalance(t *testing.T) {
	deals := []domain.Deal{
		{Time: "t1", Symbol: "EURUSD", Type: domain.DealTypeBuy, Direction: domain.DirectionIn, Price: 1.10, Commission: -2, Swap: 0},
		{Time: "t2", Symbol: "EURUSD", Type: domain.DealTypeSell, Direction: domain.DirectionOut, Price: 1.11, Profit: 100, Commission: -2, Swap: -1},
	}

	result := Reconstruct(deals)

	// 100 + (-2) + (-2) + 0 + (-1)
	if result.Trades[0].NetProfit != 95 {
		t.Errorf("expected fallback net profit 95, got %f", result.Trades[0].NetProfit)
	}
	if result.Trades[0].Commission != -4 {
		t.Errorf("expected combined commission -4, got %f", result.Trades[0].Commission)
	}
}

func TestReconstruct_UnmatchedCloseSynthesizesEntry(t *testing.T) {
	deals := []domain.Deal{
		closeDeal("t1", "EURUSD", domain.DealTypeSell, 1.105, 30, 0),
	}

	result := Reconstruct(deals)

	if len(result.Trades) != 1 {
		t.Fatalf("expected synthesized trade, got %d trades", len(result.Trades))
	}
	trade := result.Trades[0]
	if trade.EntryPrice != 0 {
		t.Errorf("expected zero-basis entry, got %f", trade.EntryPrice)
	}
	if trade.Direction != string(domain.DealTypeBuy) {
		t.Errorf("expected inferred buy direction, got %s", trade.Direction)
	}
}

func TestReconstruct_OppositeSymbolsDoNotMatch(t *testing.T) {
	deals := []domain.Deal{
		openDeal("t1", "GBPUSD", domain.DealTypeBuy, 1.25),
		closeDeal("t2", "EURUSD", domain.DealTypeSell, 1.10, 10, 0),
	}

	result := Reconstruct(deals)

	if result.Trades[0].EntryPrice != 0 {
		t.Errorf("close on EURUSD must not consume GBPUSD open, entry %f", result.Trades[0].EntryPrice)
	}
}

func TestReconstruct_BalanceRowsExcludedFromTrades(t *testing.T) {
	deals := []domain.Deal{
		balanceDeal("t0", 5000, 5000),
		balanceDeal("t1", 2000, 7000),
	}

	result := Reconstruct(deals)

	if len(result.Trades) != 0 {
		t.Errorf("expected no trades from balance rows, got %d", len(result.Trades))
	}
	if result.InitialBalance != 5000 {
		t.Errorf("expected first deposit as initial balance, got %f", result.InitialBalance)
	}
	if result.FinalBalance != 7000 {
		t.Errorf("expected last balance as final balance, got %f", result.FinalBalance)
	}
}

func TestReconstruct_Totals(t *testing.T) {
	deals := []domain.Deal{
		{Time: "t1", Symbol: "EURUSD", Type: domain.DealTypeBuy, Direction: domain.DirectionIn, Price: 1.1, Commission: -3, Swap: -1},
		{Time: "t2", Symbol: "EURUSD", Type: domain.DealTypeSell, Direction: domain.DirectionOut, Price: 1.2, Profit: 50, Commission: -3, Swap: -2},
	}

	result := Reconstruct(deals)

	if result.TotalCommission != -6 {
		t.Errorf("expected total commission -6, got %f", result.TotalCommission)
	}
	if result.TotalSwap != -3 {
		t.Errorf("expected total swap -3, got %f", result.TotalSwap)
	}
	if result.TotalProfit != 50 {
		t.Errorf("expected total gross profit 50, got %f", result.TotalProfit)
	}
	if result.TotalNetProfit != 41 {
		t.Errorf("expected total net profit 41, got %f", result.TotalNetProfit)
	}
}
