package model

// Market 交易所
type Market string

const (
	MarketSH Market = "SH"
	MarketSZ Market = "SZ"
	MarketBJ Market = "BJ"
	MarketHK Market = "HK"
)

// InstrumentCode 规范化后的证券代码
type InstrumentCode struct {
	Body   string // HK 为 5 位, 境内为 6 位
	Market Market
}

func (c InstrumentCode) String() string {
	return c.Body + "." + string(c.Market)
}

func (c InstrumentCode) IsHK() bool {
	return c.Market == MarketHK
}

// Horizon 预测周期
type Horizon string

const (
	HorizonNextDay Horizon = "next_day"
	HorizonWeek    Horizon = "week"
	HorizonMonth   Horizon = "month"
)

func (h Horizon) Valid() bool {
	switch h {
	case HorizonNextDay, HorizonWeek, HorizonMonth:
		return true
	}
	return false
}

func (h Horizon) Label() string {
	switch h {
	case HorizonWeek:
		return "本周"
	case HorizonMonth:
		return "本月"
	default:
		return "次日"
	}
}
