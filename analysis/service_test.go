package analysis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jing2uo/tsanalyst/cache"
	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/utils"
)

var now = time.Date(2024, 3, 30, 16, 0, 0, 0, utils.ChinaTZ)

type fakeSource struct {
	barCalls  atomic.Int64
	fundCalls atomic.Int64
	bars      []model.DailyBar
	barsErr   error
	fund      *model.FundamentalSnapshot
	domestic  []model.BasicInfo
	hk        []model.BasicInfo
}

func (f *fakeSource) Bars(ctx context.Context, code model.InstrumentCode) ([]model.DailyBar, error) {
	f.barCalls.Add(1)
	if f.barsErr != nil {
		return nil, f.barsErr
	}
	return f.bars, nil
}

func (f *fakeSource) Fundamentals(ctx context.Context, code model.InstrumentCode) *model.FundamentalSnapshot {
	f.fundCalls.Add(1)
	snap := *f.fund
	snap.Code = code.String()
	return &snap
}

func (f *fakeSource) Universe(ctx context.Context) ([]model.BasicInfo, []model.BasicInfo, error) {
	return f.domestic, f.hk, nil
}

type fakeEnv struct{ env model.MarketEnvironment }

func (f fakeEnv) Environment(ctx context.Context, code model.InstrumentCode) model.MarketEnvironment {
	return f.env
}

type memStore struct {
	mu        sync.Mutex
	bars      int
	snapshots []model.SnapshotRecord
}

func (m *memStore) SaveBars(ctx context.Context, bars []model.DailyBar) error {
	m.mu.Lock()
	m.bars += len(bars)
	m.mu.Unlock()
	return nil
}

func (m *memStore) SaveSnapshot(ctx context.Context, rec model.SnapshotRecord) error {
	m.mu.Lock()
	m.snapshots = append(m.snapshots, rec)
	m.mu.Unlock()
	return nil
}

func linearBars(symbol string, n int) []model.DailyBar {
	bars := make([]model.DailyBar, n)
	start := now.AddDate(0, 0, -n+1)
	for i := 0; i < n; i++ {
		// 倒序, 与上游一致
		bars[n-1-i] = model.DailyBar{
			Symbol:    symbol,
			TradeDate: time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, utils.ChinaTZ),
			Close:     100 + float64(i),
			PctChg:    1,
			Volume:    50000,
		}
	}
	return bars
}

func okFundamentals() *model.FundamentalSnapshot {
	f := &model.FundamentalSnapshot{
		Name:     model.OKText("贵州茅台"),
		Industry: model.OKText("白酒"),
	}
	f.SetValuation(model.OKMetric(30, 2, ""))
	return f
}

func okEnv() fakeEnv {
	return fakeEnv{env: model.MarketEnvironment{
		IndexCode: "399300.SZ",
		IndexName: "沪深300",
		PctChg:    model.NewReading(1.2, 2),
		Sentiment: model.SentimentOptimistic,
		Status:    model.StatusOK,
	}}
}

func newService(src *fakeSource, env EnvironmentSource, opts ...Option) *Service {
	clock := utils.NewManualClock(now)
	c := cache.New(10*time.Minute, cache.WithClock(clock))
	opts = append([]Option{WithClock(clock), WithLogger(zerolog.Nop())}, opts...)
	return NewService(src, env, c, opts...)
}

func TestAnalyze_EndToEnd(t *testing.T) {
	src := &fakeSource{bars: linearBars("600519.SH", 90), fund: okFundamentals()}
	store := &memStore{}
	svc := newService(src, okEnv(), WithStore(store))

	report, err := svc.Analyze(context.Background(), "600519")
	require.NoError(t, err)

	assert.Equal(t, OutcomeOK, report.Outcome)
	assert.Equal(t, "600519.SH", report.Code)
	assert.Equal(t, "贵州茅台", report.Name)
	assert.NotEmpty(t, report.ID)
	require.NotNil(t, report.Indicators)
	assert.Equal(t, "187.00", report.Indicators.MA5.String())
	assert.Equal(t, "179.50", report.Indicators.MA20.String())
	assert.Equal(t, "100.00", report.Indicators.RSI.String())
	assert.Equal(t, "20240330", report.Indicators.TradeDate)
	require.NotNil(t, report.Environment)
	assert.Equal(t, model.SentimentOptimistic, report.Environment.Sentiment)

	assert.Equal(t, 90, store.bars)
	require.Len(t, store.snapshots, 1)
	assert.Equal(t, "187.00", store.snapshots[0].MA5)
	assert.Equal(t, "30.00", store.snapshots[0].PETTM)
	assert.Equal(t, "optimistic", store.snapshots[0].Sentiment)
}

func TestReport_RecordSentiment(t *testing.T) {
	tests := []struct {
		name string
		env  model.MarketEnvironment
		want string
	}{
		{"index ok", okEnv().env, "optimistic"},
		{"index failed", model.MarketEnvironment{
			IndexCode: "399300.SZ",
			Sentiment: model.SentimentNeutral,
			Status:    model.StatusFailed,
			Cause:     "down",
		}, model.Insufficient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{bars: linearBars("600519.SH", 30), fund: okFundamentals()}
			store := &memStore{}
			svc := newService(src, fakeEnv{env: tt.env}, WithStore(store))

			report, err := svc.Analyze(context.Background(), "600519")
			require.NoError(t, err)
			require.True(t, report.OK())

			require.Len(t, store.snapshots, 1)
			assert.Equal(t, tt.want, store.snapshots[0].Sentiment)
		})
	}
}

func TestReport_Err(t *testing.T) {
	ok := &Report{Code: "600519.SH", Outcome: OutcomeOK}
	assert.NoError(t, ok.Err())

	failed := &Report{Code: "600000.SH", Outcome: OutcomeNoData, Guidance: guidanceNoData}
	err := failed.Err()
	var re *ReportError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "no_data", re.Outcome())
	assert.Contains(t, err.Error(), "600000.SH")
}

func TestAnalyze_UsesCache(t *testing.T) {
	src := &fakeSource{bars: linearBars("000001.SZ", 30), fund: okFundamentals()}
	svc := newService(src, okEnv())

	for i := 0; i < 3; i++ {
		_, err := svc.Analyze(context.Background(), "000001")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), src.barCalls.Load())
	assert.Equal(t, int64(1), src.fundCalls.Load())
}

func TestAnalyze_ClassificationError(t *testing.T) {
	src := &fakeSource{fund: okFundamentals()}
	_, err := newService(src, okEnv()).Analyze(context.Background(), "12345678")
	assert.ErrorIs(t, err, utils.ErrWrongLength)
	assert.Zero(t, src.barCalls.Load())
}

func TestAnalyze_NoData(t *testing.T) {
	src := &fakeSource{barsErr: model.ErrNoData, fund: okFundamentals()}
	report, err := newService(src, okEnv()).Analyze(context.Background(), "600519")
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoData, report.Outcome)
	assert.Equal(t, guidanceNoData, report.Guidance)
	assert.Nil(t, report.Indicators)

	_, err = NewRequest(report, model.HorizonNextDay, "")
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestAnalyze_HKPermissionHint(t *testing.T) {
	fe := &model.FetchError{Op: "hk_daily", Code: "00700.HK", Permission: true, Err: errors.New("没有权限")}
	src := &fakeSource{barsErr: fe, fund: okFundamentals()}
	report, err := newService(src, okEnv()).Analyze(context.Background(), "00700")
	require.NoError(t, err)

	assert.Equal(t, OutcomeFetchFailed, report.Outcome)
	assert.Equal(t, guidanceHKTier, report.Guidance)
	assert.Equal(t, model.MarketHK, report.Market)
}

func TestAnalyze_FailuresAreRetried(t *testing.T) {
	src := &fakeSource{barsErr: &model.FetchError{Op: "daily", Err: errors.New("reset")}, fund: okFundamentals()}
	svc := newService(src, okEnv())

	report, err := svc.Analyze(context.Background(), "600519")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFetchFailed, report.Outcome)
	assert.Equal(t, guidanceFailed, report.Guidance)

	src.barsErr = nil
	src.bars = linearBars("600519.SH", 30)
	report, err = svc.Analyze(context.Background(), "600519")
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, report.Outcome)
	assert.Equal(t, int64(2), src.barCalls.Load())
}

func TestAnalyze_DegradedFundamentalsNotCached(t *testing.T) {
	fund := okFundamentals()
	fund.Industry = model.FailedText(errors.New("timeout"))
	src := &fakeSource{bars: linearBars("600519.SH", 30), fund: fund}
	svc := newService(src, okEnv())

	report, err := svc.Analyze(context.Background(), "600519")
	require.NoError(t, err)
	require.NotNil(t, report.Fundamentals)
	assert.Equal(t, model.StatusFailed, report.Fundamentals.Industry.Status)

	_, err = svc.Analyze(context.Background(), "600519")
	require.NoError(t, err)
	assert.Equal(t, int64(2), src.fundCalls.Load())
	assert.Equal(t, int64(1), src.barCalls.Load())
}

func TestAnalyze_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{bars: linearBars("600519.SH", 30), fund: okFundamentals()}
	_, err := newService(src, okEnv()).Analyze(ctx, "600519")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRequest(t *testing.T) {
	src := &fakeSource{bars: linearBars("600519.SH", 30), fund: okFundamentals()}
	report, err := newService(src, okEnv()).Analyze(context.Background(), "600519")
	require.NoError(t, err)

	req, err := NewRequest(report, model.HorizonWeek, "")
	require.NoError(t, err)
	assert.Equal(t, "600519.SH", req.Code)
	assert.Equal(t, "贵州茅台", req.Name)
	assert.Equal(t, "本周", req.HorizonLabel)
	assert.Equal(t, DefaultStyle, req.Style)
	assert.Equal(t, "白酒", req.Fundamentals.Industry.Value)

	_, err = NewRequest(report, model.Horizon("year"), "")
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestSearch(t *testing.T) {
	src := &fakeSource{
		fund:     okFundamentals(),
		domestic: []model.BasicInfo{{TSCode: "600519.SH", Name: "贵州茅台"}},
		hk:       []model.BasicInfo{{TSCode: "00700.HK", Name: "腾讯控股"}},
	}
	hits, err := newService(src, okEnv()).Search(context.Background(), "腾讯")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "00700.HK", hits[0].TSCode)
}
