package database

import (
	"fmt"
	"strings"

	"github.com/jing2uo/tsanalyst/database/duckdb"
	"github.com/jing2uo/tsanalyst/model"
)

func NewDatabase(cfg model.DBConfig) (DataRepository, error) {
	switch cfg.Type {
	case model.DBTypeDuckDB:
		return duckdb.NewDriver(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported db type: %s", cfg.Type)
	}
}

// NewDB 解析 duckdb://path, 不带 scheme 时按 DuckDB 文件路径处理
func NewDB(dbURI string) (DataRepository, error) {
	if dbURI == "" {
		return nil, fmt.Errorf("empty database uri")
	}

	scheme, rest, found := strings.Cut(dbURI, "://")
	if !found {
		return NewDatabase(model.DBConfig{Type: model.DBTypeDuckDB, DSN: dbURI})
	}
	return NewDatabase(model.DBConfig{Type: model.DBType(scheme), DSN: rest})
}
