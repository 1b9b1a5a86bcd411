package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/jing2uo/tsanalyst/analysis"
	"github.com/jing2uo/tsanalyst/cache"
	"github.com/jing2uo/tsanalyst/config"
	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/utils"
)

type stubSource struct {
	bars []model.DailyBar
	err  error
}

func (s stubSource) Bars(ctx context.Context, code model.InstrumentCode) ([]model.DailyBar, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.DailyBar, len(s.bars))
	copy(out, s.bars)
	for i := range out {
		out[i].Symbol = code.String()
	}
	return out, nil
}

func (s stubSource) Fundamentals(ctx context.Context, code model.InstrumentCode) *model.FundamentalSnapshot {
	f := &model.FundamentalSnapshot{
		Code:     code.String(),
		Name:     model.OKText("测试股份"),
		Industry: model.OKText("白酒"),
	}
	f.SetValuation(model.OKMetric(25.5, 2, ""))
	return f
}

func (s stubSource) Universe(ctx context.Context) ([]model.BasicInfo, []model.BasicInfo, error) {
	return []model.BasicInfo{{TSCode: "600519.SH", Name: "贵州茅台", Industry: "白酒"}}, nil, nil
}

type stubEnv struct{}

func (stubEnv) Environment(ctx context.Context, code model.InstrumentCode) model.MarketEnvironment {
	return model.MarketEnvironment{
		IndexCode: "399300.SZ",
		IndexName: "沪深300",
		PctChg:    model.NewReading(1.5, 2),
		Sentiment: model.SentimentOptimistic,
		Status:    model.StatusOK,
	}
}

func testBars(n int) []model.DailyBar {
	bars := make([]model.DailyBar, n)
	for i := range bars {
		bars[i] = model.DailyBar{
			TradeDate: time.Date(2024, 3, 1+i, 0, 0, 0, 0, utils.ChinaTZ),
			Close:     100 + float64(i),
			PctChg:    1,
			Volume:    20000,
		}
	}
	return bars
}

func newTestEnv(src stubSource) *Env {
	c := cache.New(time.Minute)
	return &Env{
		Config:  &config.Config{WatchCron: "@every 1h"},
		Log:     zerolog.Nop(),
		Cache:   c,
		Service: analysis.NewService(src, stubEnv{}, c),
	}
}

func TestClassify(t *testing.T) {
	var buf bytes.Buffer
	err := Classify(&buf, []string{"600519", "00700", "12"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3")
	out := buf.String()
	assert.Contains(t, out, "600519 -> 600519.SH")
	assert.Contains(t, out, "00700 -> 00700.HK")
	assert.Contains(t, out, "❌")

	buf.Reset()
	assert.NoError(t, Classify(&buf, []string{"000001"}))
	assert.Contains(t, buf.String(), "000001.SZ")
}

func TestAnalyze_Text(t *testing.T) {
	env := newTestEnv(stubSource{bars: testBars(30)})
	var buf bytes.Buffer

	require.NoError(t, Analyze(context.Background(), env, &buf, "600519", model.HorizonWeek, "", false))

	out := buf.String()
	assert.Contains(t, out, "600519.SH 测试股份")
	assert.Contains(t, out, "收盘价: 129.00")
	assert.Contains(t, out, "5日均线: 127.00")
	assert.Contains(t, out, "成交量: 2.00万手")
	assert.Contains(t, out, "PE(TTM): 25.50")
	assert.Contains(t, out, "1.50% (沪深300) 乐观")
	assert.Contains(t, out, "预测周期: 本周, 风格: balanced")
}

func TestAnalyze_JSON(t *testing.T) {
	env := newTestEnv(stubSource{bars: testBars(30)})
	var buf bytes.Buffer

	require.NoError(t, Analyze(context.Background(), env, &buf, "00700", model.HorizonMonth, "aggressive", true))

	body := buf.String()
	assert.Equal(t, "00700.HK", gjson.Get(body, "report.code").String())
	assert.Equal(t, "ok", gjson.Get(body, "report.outcome").String())
	assert.Equal(t, "本月", gjson.Get(body, "request.horizon_label").String())
	assert.Equal(t, "aggressive", gjson.Get(body, "request.style").String())
}

func TestAnalyze_Failures(t *testing.T) {
	env := newTestEnv(stubSource{bars: testBars(30)})
	var buf bytes.Buffer

	err := Analyze(context.Background(), env, &buf, "600519", model.Horizon("year"), "", false)
	assert.ErrorIs(t, err, analysis.ErrInvalidHorizon)

	env = newTestEnv(stubSource{err: model.ErrNoData})
	buf.Reset()
	err = Analyze(context.Background(), env, &buf, "600519", model.HorizonNextDay, "", false)
	assert.ErrorIs(t, err, analysis.ErrDataUnavailable)
	assert.Contains(t, buf.String(), "未查询到行情数据")
}

func TestSearch(t *testing.T) {
	env := newTestEnv(stubSource{})
	var buf bytes.Buffer

	require.NoError(t, Search(context.Background(), env, &buf, "茅台"))
	assert.Contains(t, buf.String(), "600519.SH  贵州茅台  [白酒]")

	buf.Reset()
	require.NoError(t, Search(context.Background(), env, &buf, "不存在"))
	assert.Contains(t, buf.String(), "未找到")
}

func TestBatch(t *testing.T) {
	env := newTestEnv(stubSource{bars: testBars(30)})
	output := filepath.Join(t.TempDir(), "out", "summary.csv")
	var buf bytes.Buffer

	err := Batch(context.Background(), env, &buf, []string{"600519", "12", "000001"}, output, 2)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "code,trade_date,close"))
	assert.Contains(t, buf.String(), "完成 2/3")
	assert.Contains(t, buf.String(), "⚠️ [invalid_code] 12")
	assert.Contains(t, buf.String(), "📊 ok=2 invalid_code=1")
}

func TestBatch_OutcomeCounts(t *testing.T) {
	tests := []struct {
		name    string
		src     stubSource
		codes   []string
		summary string
	}{
		{"no data", stubSource{err: model.ErrNoData}, []string{"600519", "000001"}, "no_data=2"},
		{"fetch failed", stubSource{err: errors.New("connection reset")}, []string{"600519"}, "fetch_failed=1"},
		{"mixed failures", stubSource{err: model.ErrNoData}, []string{"600519", "12"}, "invalid_code=1 no_data=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(tt.src)
			var buf bytes.Buffer

			err := Batch(context.Background(), env, &buf, tt.codes, filepath.Join(t.TempDir(), "summary.csv"), 2)
			require.Error(t, err)
			assert.Contains(t, buf.String(), "📊 "+tt.summary+"\n")
			assert.Contains(t, err.Error(), tt.summary)
		})
	}
}

func TestBatch_AllFailed(t *testing.T) {
	env := newTestEnv(stubSource{err: model.ErrNoData})
	output := filepath.Join(t.TempDir(), "summary.csv")

	err := Batch(context.Background(), env, &bytes.Buffer{}, []string{"600519"}, output, 1)
	assert.Error(t, err)

	assert.Error(t, Batch(context.Background(), env, &bytes.Buffer{}, nil, output, 1))
}

func TestExport_CSV(t *testing.T) {
	env := newTestEnv(stubSource{bars: testBars(30)})
	output := filepath.Join(t.TempDir(), "series.csv")
	var buf bytes.Buffer

	require.NoError(t, Export(context.Background(), env, &buf, "600519", FormatCSV, output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 31)
	assert.True(t, strings.HasPrefix(lines[0], "symbol,trade_date,close"))
	assert.True(t, strings.HasPrefix(lines[1], "600519.SH,2024-03-01,100"))
	assert.Contains(t, buf.String(), "30 行")
}

func TestExport_Parquet(t *testing.T) {
	env := newTestEnv(stubSource{bars: testBars(30)})
	output := filepath.Join(t.TempDir(), "series.parquet")

	var buf bytes.Buffer

	require.NoError(t, Export(context.Background(), env, &buf, "600519", FormatParquet, output))

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Contains(t, buf.String(), "已导出 30 行")
}

func TestExport_NoDataLeavesNoFile(t *testing.T) {
	env := newTestEnv(stubSource{err: model.ErrNoData})
	output := filepath.Join(t.TempDir(), "series.csv")

	err := Export(context.Background(), env, &bytes.Buffer{}, "600519", FormatCSV, output)
	require.ErrorIs(t, err, model.ErrNoData)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExport_UnsupportedFormat(t *testing.T) {
	env := newTestEnv(stubSource{bars: testBars(30)})
	err := Export(context.Background(), env, &bytes.Buffer{}, "600519", "xlsx", filepath.Join(t.TempDir(), "x"))
	assert.ErrorContains(t, err, "unsupported format")
}

func TestHistory(t *testing.T) {
	db, err := OpenDB("duckdb://")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, db.SaveSnapshot(ctx, model.SnapshotRecord{
		Code:      "600519.SH",
		TradeDate: time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC),
		Close:     "1700.00",
		PctChg:    "1.20",
		MA20:      "1650.00",
		RSI:       "61.20",
		PETTM:     "28.10",
		Sentiment: "neutral",
		CreatedAt: time.Date(2024, 3, 29, 16, 0, 0, 0, time.UTC),
	}))

	var buf bytes.Buffer
	require.NoError(t, History(ctx, db, &buf, "600519", 10, false, false))
	assert.Contains(t, buf.String(), "2024-03-29  收盘 1700.00")

	buf.Reset()
	require.NoError(t, History(ctx, db, &buf, "000001", 10, false, false))
	assert.Contains(t, buf.String(), "暂无历史快照")

	require.NoError(t, db.SaveBars(ctx, []model.DailyBar{
		{Symbol: "600519.SH", TradeDate: time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{Symbol: "600519.SH", TradeDate: time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC), Open: 1.5, High: 2, Low: 1, Close: 1.8},
	}))
	buf.Reset()
	require.NoError(t, History(ctx, db, &buf, "600519", 1, true, false))
	out := buf.String()
	assert.Contains(t, out, "最新日期为 2024-03-29")
	assert.Contains(t, out, "2024-03-29  开 1.50")
	assert.NotContains(t, out, "2024-03-28")
}

func TestWatch_DefaultsToStoredSymbols(t *testing.T) {
	db, err := OpenDB("duckdb://")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := newTestEnv(stubSource{bars: testBars(30)})
	env.DB = db

	err = Watch(context.Background(), env, &bytes.Buffer{}, nil, "", false)
	assert.ErrorContains(t, err, "no symbols are stored")
}

func TestWatch_RequiresDatabase(t *testing.T) {
	env := newTestEnv(stubSource{bars: testBars(30)})
	err := Watch(context.Background(), env, &bytes.Buffer{}, []string{"600519"}, "", false)
	assert.ErrorIs(t, err, ErrDBRequired)
}

func TestWatchJob(t *testing.T) {
	env := newTestEnv(stubSource{bars: testBars(30)})
	var buf bytes.Buffer

	job := watchJob(context.Background(), env, &buf, []string{"600519", "00700"})
	require.NoError(t, job.Run())
	assert.Contains(t, buf.String(), "600519.SH")
	assert.Contains(t, buf.String(), "00700.HK")

	job = watchJob(context.Background(), env, &bytes.Buffer{}, []string{"12"})
	assert.Error(t, job.Run())
}
