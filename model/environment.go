package model

// Sentiment 市场情绪
type Sentiment string

const (
	SentimentOptimistic  Sentiment = "optimistic"
	SentimentNeutral     Sentiment = "neutral"
	SentimentPessimistic Sentiment = "pessimistic"
)

func (s Sentiment) Label() string {
	switch s {
	case SentimentOptimistic:
		return "乐观"
	case SentimentPessimistic:
		return "悲观"
	default:
		return "中性"
	}
}

// MarketEnvironment 参考指数的最新涨跌与情绪
type MarketEnvironment struct {
	IndexCode string      `json:"index_code"`
	IndexName string      `json:"index_name"`
	TradeDate string      `json:"trade_date,omitempty"`
	PctChg    Reading     `json:"pct_chg"`
	Sentiment Sentiment   `json:"sentiment"`
	Status    FieldStatus `json:"status"`
	Cause     string      `json:"cause,omitempty"`
}

func (e MarketEnvironment) String() string {
	if e.Status != StatusOK {
		return "未知 (" + e.Sentiment.Label() + ")"
	}
	return e.PctChg.String() + "% (" + e.IndexName + ") " + e.Sentiment.Label()
}
