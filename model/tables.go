package model

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

type DataType int

const (
	TypeString DataType = iota
	TypeFloat64
	TypeInt64
	TypeDate     // YYYY-MM-DD
	TypeDateTime // YYYY-MM-DD HH:MM:SS
)

type Column struct {
	Name     string
	Type     DataType
	Nullable bool
}

type TableMeta struct {
	TableName  string
	Columns    []Column
	OrderByKey []string
}

// ColumnNames 按声明顺序返回列名
func (t *TableMeta) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

var (
	tableRegistry   []*TableMeta
	tableRegistryMu sync.Mutex
)

func registerTable(t *TableMeta) {
	tableRegistryMu.Lock()
	defer tableRegistryMu.Unlock()
	tableRegistry = append(tableRegistry, t)
}

// AllTables 返回当前所有已注册的表结构
func AllTables() []*TableMeta {
	tableRegistryMu.Lock()
	defer tableRegistryMu.Unlock()

	result := make([]*TableMeta, len(tableRegistry))
	copy(result, tableRegistry)
	return result
}

var timeType = reflect.TypeOf(time.Time{})

// SchemaFromStruct 通过反射生成 TableMeta 并自动注册
func SchemaFromStruct(tableName string, model interface{}, orderByKey []string) *TableMeta {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var cols []Column

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		colName := field.Tag.Get("col")
		if colName == "-" {
			continue
		}
		if colName == "" {
			colName = strings.ToLower(field.Name)
		}

		ft := field.Type
		nullable := false
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
			nullable = true
		}

		var dType DataType
		switch customType := field.Tag.Get("type"); {
		case customType == "date":
			dType = TypeDate
		case customType == "datetime":
			dType = TypeDateTime
		default:
			switch ft.Kind() {
			case reflect.Float64, reflect.Float32:
				dType = TypeFloat64
			case reflect.Int, reflect.Int64, reflect.Int32, reflect.Uint32:
				dType = TypeInt64
			case reflect.Struct:
				if ft == timeType {
					dType = TypeDateTime
				}
			default:
				dType = TypeString
			}
		}

		cols = append(cols, Column{Name: colName, Type: dType, Nullable: nullable})
	}

	meta := &TableMeta{
		TableName:  tableName,
		Columns:    cols,
		OrderByKey: orderByKey,
	}

	registerTable(meta)

	return meta
}

// --- 结构体定义 (Schema) ---

// DailyBar 日线, 上游按日期倒序返回
type DailyBar struct {
	Symbol    string    `col:"symbol"     db:"symbol"     parquet:"symbol,dict" json:"symbol"`
	TradeDate time.Time `col:"trade_date" db:"trade_date" parquet:"trade_date"  json:"trade_date" type:"date"`
	Open      float64   `col:"open"       db:"open"       parquet:"open"        json:"open"`
	High      float64   `col:"high"       db:"high"       parquet:"high"        json:"high"`
	Low       float64   `col:"low"        db:"low"        parquet:"low"         json:"low"`
	Close     float64   `col:"close"      db:"close"      parquet:"close"       json:"close"`
	PreClose  float64   `col:"pre_close"  db:"pre_close"  parquet:"pre_close"   json:"pre_close"`
	PctChg    float64   `col:"pct_chg"    db:"pct_chg"    parquet:"pct_chg"     json:"pct_chg"`
	Volume    float64   `col:"volume"     db:"volume"     parquet:"volume"      json:"volume"` // 手
	Amount    float64   `col:"amount"     db:"amount"     parquet:"amount"      json:"amount"` // 千元
}

// IndicatorRow 单根 K 线及其指标, 窗口未满为 nil
type IndicatorRow struct {
	Symbol     string    `col:"symbol"     parquet:"symbol,dict" json:"symbol"`
	TradeDate  time.Time `col:"trade_date" parquet:"trade_date" json:"trade_date"   type:"date"`
	Close      *float64  `col:"close"      parquet:"close,optional" json:"close"`
	PctChg     *float64  `col:"pct_chg"    parquet:"pct_chg,optional" json:"pct_chg"`
	Volume     float64   `col:"volume"     parquet:"volume" json:"volume"`
	MA5        *float64  `col:"ma5"        parquet:"ma5,optional" json:"ma5"`
	MA10       *float64  `col:"ma10"       parquet:"ma10,optional" json:"ma10"`
	MA20       *float64  `col:"ma20"       parquet:"ma20,optional" json:"ma20"`
	DIF        *float64  `col:"dif"        parquet:"dif,optional" json:"dif"`
	DEA        *float64  `col:"dea"        parquet:"dea,optional" json:"dea"`
	MACD       *float64  `col:"macd"       parquet:"macd,optional" json:"macd"`
	RSI        *float64  `col:"rsi"        parquet:"rsi,optional" json:"rsi"`
	BollUpper  *float64  `col:"boll_upper" parquet:"boll_upper,optional" json:"boll_upper"`
	BollMid    *float64  `col:"boll_mid"   parquet:"boll_mid,optional" json:"boll_mid"`
	BollLower  *float64  `col:"boll_lower" parquet:"boll_lower,optional" json:"boll_lower"`
	Volatility *float64  `col:"volatility" parquet:"volatility,optional" json:"volatility"`
}

// SnapshotRecord 持久化的分析快照, 数值保留展示格式
type SnapshotRecord struct {
	Code       string    `col:"code"        db:"code"        json:"code"`
	TradeDate  time.Time `col:"trade_date"  db:"trade_date"  json:"trade_date"  type:"date"`
	Close      string    `col:"close"       db:"close"       json:"close"`
	PctChg     string    `col:"pct_chg"     db:"pct_chg"     json:"pct_chg"`
	MA5        string    `col:"ma5"         db:"ma5"         json:"ma5"`
	MA10       string    `col:"ma10"        db:"ma10"        json:"ma10"`
	MA20       string    `col:"ma20"        db:"ma20"        json:"ma20"`
	MACD       string    `col:"macd"        db:"macd"        json:"macd"`
	RSI        string    `col:"rsi"         db:"rsi"         json:"rsi"`
	BollUpper  string    `col:"boll_upper"  db:"boll_upper"  json:"boll_upper"`
	BollLower  string    `col:"boll_lower"  db:"boll_lower"  json:"boll_lower"`
	Volatility string    `col:"volatility"  db:"volatility"  json:"volatility"`
	PETTM      string    `col:"pe_ttm"      db:"pe_ttm"      json:"pe_ttm"`
	Sentiment  string    `col:"sentiment"   db:"sentiment"   json:"sentiment"`
	CreatedAt  time.Time `col:"created_at"  db:"created_at"  json:"created_at"  type:"datetime"`
}

// --- 表结构元数据 (TableMeta) ---

var TableDailyBars = SchemaFromStruct(
	"daily_bars",
	DailyBar{},
	[]string{"symbol", "trade_date"},
)

var TableSnapshots = SchemaFromStruct(
	"analysis_snapshots",
	SnapshotRecord{},
	[]string{"code", "trade_date"},
)
