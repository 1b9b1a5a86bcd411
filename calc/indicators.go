package calc

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// ma 简单移动平均, 前 period-1 个为 NaN, 窗口内有 NaN 时也为 NaN
func ma(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	// talib.Sma 是累加实现, NaN 会污染之后所有窗口, 先置 0 再回填
	clean := make([]float64, len(values))
	missing := make([]int, len(values)+1)
	for i, v := range values {
		missing[i+1] = missing[i]
		if math.IsNaN(v) {
			missing[i+1]++
			continue
		}
		clean[i] = v
	}

	// talib.Sma 长度不足会越界
	sma := talib.Sma(clean, period)
	for i := period - 1; i < len(values); i++ {
		if missing[i+1]-missing[i+1-period] > 0 {
			continue
		}
		out[i] = sma[i]
	}
	return out
}

// ema 以首个值为种子, alpha = 2/(span+1), 不做偏差修正。
// NaN 输入沿用上一个值, 开头的 NaN 保持 NaN 直到第一个有效值。
func ema(values []float64, span int) []float64 {
	out := nanSlice(len(values))
	alpha := 2.0 / (float64(span) + 1)
	prev := math.NaN()
	for i, v := range values {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(prev):
			prev = v
		default:
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// macd 返回 DIF, DEA, 柱 = 2*(DIF-DEA)
func macd(closes []float64, fast, slow, signal int) (dif, dea, hist []float64) {
	fastEMA := ema(closes, fast)
	slowEMA := ema(closes, slow)

	dif = make([]float64, len(closes))
	for i := range closes {
		dif[i] = fastEMA[i] - slowEMA[i]
	}
	dea = ema(dif, signal)

	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = 2 * (dif[i] - dea[i])
	}
	return dif, dea, hist
}

// rsi 涨跌幅的简单滚动均值 (非 Wilder 平滑), 需要 period+1 个收盘价。
// 平均跌幅为 0 时取上限 100, 包括完全平盘。窗口内有缺失收盘价时为 NaN。
func rsi(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	for i := period; i < len(closes); i++ {
		avgGain := stat.Mean(gains[i-period+1:i+1], nil)
		avgLoss := stat.Mean(losses[i-period+1:i+1], nil)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// rollingStd 样本标准差 (n-1)
func rollingStd(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 2 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		out[i] = stat.StdDev(values[i-period+1:i+1], nil)
	}
	return out
}

// bollinger 中轨为 period 均线, 上下轨为中轨 ± k 倍样本标准差
func bollinger(closes []float64, period int, k float64) (mid, upper, lower []float64) {
	mid = ma(closes, period)
	std := rollingStd(closes, period)

	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	for i := range closes {
		if math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			continue
		}
		upper[i] = mid[i] + k*std[i]
		lower[i] = mid[i] - k*std[i]
	}
	return mid, upper, lower
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
