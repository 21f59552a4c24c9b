package repositories

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ForexPilot/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Candle{},
		&models.Trade{},
		&models.AnalysisLog{},
		&models.User{},
	))
	return db
}

func testCandle(ts time.Time, close, volume float64) *models.Candle {
	return &models.Candle{
		Symbol:    "EURUSD",
		TimeFrame: models.CandleTimeFrame5m,
		Timestamp: ts,
		Open:      close - 0.0005,
		High:      close + 0.0002,
		Low:       close - 0.0007,
		Close:     close,
		Volume:    volume,
	}
}

func TestCandleUpsertIsIdempotent(t *testing.T) {
	repo := NewCandleRepository(testDB(t))
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(testCandle(ts, 1.1000, 100)))

	// Replay of the same (symbol, timeframe, timestamp) updates in place.
	replay := testCandle(ts, 1.1010, 999)
	require.NoError(t, repo.Upsert(replay))

	count, err := repo.Count("EURUSD", models.CandleTimeFrame5m)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := repo.GetLatest("EURUSD", models.CandleTimeFrame5m)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 1.1010, stored.Close)
	// The originally written volume survives the replay.
	assert.Equal(t, 100.0, stored.Volume)
}

func TestCandleUpsertValidation(t *testing.T) {
	repo := NewCandleRepository(testDB(t))

	require.Error(t, repo.Upsert(nil))

	bad := testCandle(time.Now(), 1.1, 100)
	bad.TimeFrame = "42m"
	require.Error(t, repo.Upsert(bad))
}

func TestCandleGetRecentAscendingOrder(t *testing.T) {
	repo := NewCandleRepository(testDB(t))
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	// Insert out of chronological order.
	for _, i := range []int{3, 0, 4, 1, 2} {
		require.NoError(t, repo.Upsert(testCandle(base.Add(time.Duration(i)*5*time.Minute), 1.10+float64(i)*0.001, 100)))
	}

	candles, err := repo.GetRecent("EURUSD", models.CandleTimeFrame5m, 3)
	require.NoError(t, err)
	require.Len(t, candles, 3)

	// Most recent three, oldest first.
	assert.Equal(t, 1.102, candles[0].Close)
	assert.Equal(t, 1.103, candles[1].Close)
	assert.Equal(t, 1.104, candles[2].Close)
	assert.True(t, candles[0].Timestamp.Before(candles[1].Timestamp))
	assert.True(t, candles[1].Timestamp.Before(candles[2].Timestamp))
}

func TestCandleGetByRange(t *testing.T) {
	repo := NewCandleRepository(testDB(t))
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Upsert(testCandle(base.Add(time.Duration(i)*5*time.Minute), 1.10+float64(i)*0.001, 100)))
	}

	candles, err := repo.GetByRange("EURUSD", models.CandleTimeFrame5m,
		base.Add(5*time.Minute), base.Add(15*time.Minute))
	require.NoError(t, err)
	assert.Len(t, candles, 3)
}

func TestCandleGetLatestEmpty(t *testing.T) {
	repo := NewCandleRepository(testDB(t))

	candle, err := repo.GetLatest("EURUSD", models.CandleTimeFrame5m)
	require.NoError(t, err)
	assert.Nil(t, candle)
}

func testTrade(userID uint, tradeID string, openedAt time.Time) *models.Trade {
	return &models.Trade{
		TradeID:    tradeID,
		UserID:     userID,
		Symbol:     "EURUSD",
		Type:       models.TradeTypeBuy,
		EntryPrice: 1.1000,
		Amount:     10,
		Status:     models.TradeStatusActive,
		OpenedAt:   openedAt,
	}
}

func TestTradeCloseUpdatesAllFieldsTogether(t *testing.T) {
	db := testDB(t)
	repo := NewTradeRepository(db)

	trade := testTrade(1, "t-close-1", time.Now())
	require.NoError(t, repo.Create(trade))

	closedAt := time.Now()
	require.NoError(t, repo.Close(trade, 1.1050, 0.05, closedAt))

	reloaded, err := repo.FindByTradeID("t-close-1")
	require.NoError(t, err)
	require.NotNil(t, reloaded)

	assert.Equal(t, models.TradeStatusClosed, reloaded.Status)
	require.NotNil(t, reloaded.ExitPrice)
	assert.Equal(t, 1.1050, *reloaded.ExitPrice)
	require.NotNil(t, reloaded.ProfitLoss)
	assert.Equal(t, 0.05, *reloaded.ProfitLoss)
	require.NotNil(t, reloaded.ClosedAt)

	// A second close is rejected.
	require.Error(t, repo.Close(trade, 1.1060, 0.06, time.Now()))
}

func TestTradeCountOpenedSince(t *testing.T) {
	repo := NewTradeRepository(testDB(t))
	dayStart := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	// Two today, one yesterday.
	require.NoError(t, repo.Create(testTrade(1, "t-a", dayStart.Add(9*time.Hour))))
	require.NoError(t, repo.Create(testTrade(1, "t-b", dayStart.Add(10*time.Hour))))
	require.NoError(t, repo.Create(testTrade(1, "t-c", dayStart.Add(-2*time.Hour))))
	// Another user's trade never counts.
	require.NoError(t, repo.Create(testTrade(2, "t-d", dayStart.Add(9*time.Hour))))

	count, err := repo.CountOpenedSince(1, dayStart)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTradeFindByUserNewestFirst(t *testing.T) {
	repo := NewTradeRepository(testDB(t))
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(testTrade(1, "t-old", base)))
	require.NoError(t, repo.Create(testTrade(1, "t-new", base.Add(time.Hour))))

	trades, err := repo.FindByUser(1, 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "t-new", trades[0].TradeID)
	assert.Equal(t, "t-old", trades[1].TradeID)
}

func TestTradeFindActiveByUser(t *testing.T) {
	db := testDB(t)
	repo := NewTradeRepository(db)

	active := testTrade(1, "t-active", time.Now())
	require.NoError(t, repo.Create(active))

	closed := testTrade(1, "t-closed", time.Now())
	require.NoError(t, repo.Create(closed))
	require.NoError(t, repo.Close(closed, 1.1050, 0.05, time.Now()))

	trades, err := repo.FindActiveByUser(1)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "t-active", trades[0].TradeID)
}

func TestTradeFindByTradeIDMissing(t *testing.T) {
	repo := NewTradeRepository(testDB(t))

	trade, err := repo.FindByTradeID("nope")
	require.NoError(t, err)
	assert.Nil(t, trade)
}

func TestTradeTotalProfitLoss(t *testing.T) {
	repo := NewTradeRepository(testDB(t))
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	first := testTrade(1, "t-pnl-1", base)
	require.NoError(t, repo.Create(first))
	require.NoError(t, repo.Close(first, 1.1050, 0.05, base.Add(time.Hour)))

	second := testTrade(1, "t-pnl-2", base)
	require.NoError(t, repo.Create(second))
	require.NoError(t, repo.Close(second, 1.0980, -0.02, base.Add(2*time.Hour)))

	total, err := repo.GetTotalProfitLoss(1, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 0.03, total, 1e-9)
}

func TestAnalysisLogAppendAndQuery(t *testing.T) {
	repo := NewAnalysisLogRepository(testDB(t))
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Append(&models.AnalysisLog{
			Symbol:     "EURUSD",
			Action:     "hold",
			Confidence: 0.4 + float64(i)*0.1,
			Decision:   `{"action":"hold"}`,
			Timestamp:  base.Add(time.Duration(i) * 5 * time.Minute),
		}))
	}
	require.NoError(t, repo.Append(&models.AnalysisLog{
		Symbol:    "GBPUSD",
		Action:    "buy",
		Timestamp: base,
	}))

	entries, err := repo.FindBySymbol("EURUSD", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	assert.InDelta(t, 0.6, entries[0].Confidence, 1e-9)

	ranged, err := repo.FindByDateRange(base, base.Add(6*time.Minute))
	require.NoError(t, err)
	assert.Len(t, ranged, 3)

	require.Error(t, repo.Append(nil))
}

func TestUserFindAutoTraders(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	seed := []models.User{
		{Email: "a@x.io", SubscriptionTier: models.TierFree, TradingEnabled: true, AIEnabled: true},
		{Email: "b@x.io", SubscriptionTier: models.TierBasic, TradingEnabled: true, AIEnabled: false},
		{Email: "c@x.io", SubscriptionTier: models.TierPremium, TradingEnabled: false, AIEnabled: true},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	users, err := repo.FindAutoTraders()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@x.io", users[0].Email)
}
