package utils

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/parquet-go/parquet-go"
)

type ParquetWriter[T any] struct {
	file   *os.File
	writer *parquet.GenericWriter[T]
	rows   atomic.Int64
}

// NewParquetWriter 初始化一个新的写入器
// filename: 文件路径
// options: Parquet 配置（如压缩、Buffer大小）
func NewParquetWriter[T any](filename string, options ...parquet.WriterOption) (*ParquetWriter[T], error) {
	// 1. 创建文件
	f, err := createFile(filename)
	if err != nil {
		return nil, err
	}

	// 2. 设置默认配置
	defaultOpts := []parquet.WriterOption{
		parquet.Compression(&parquet.Snappy),
		parquet.PageBufferSize(64 * 1024),
	}
	finalOpts := append(defaultOpts, options...)

	// 3. 创建 GenericWriter
	pw := parquet.NewGenericWriter[T](f, finalOpts...)

	return &ParquetWriter[T]{
		file:   f,
		writer: pw,
	}, nil
}

// Write 写入一批数据
func (p *ParquetWriter[T]) Write(data []T) error {
	n, err := p.writer.Write(data)
	p.rows.Add(int64(n))
	if err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	return nil
}

// Rows 已写入行数
func (p *ParquetWriter[T]) Rows() int64 {
	return p.rows.Load()
}

// Close 关闭 Writer 和文件
func (p *ParquetWriter[T]) Close() error {
	// 1. 先关闭 Parquet Writer (写入 Footer)
	if err := p.writer.Close(); err != nil {
		p.file.Close()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	// 2. 再关闭物理文件
	if err := p.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	return nil
}
