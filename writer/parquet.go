package writer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"hotelprices/config"
	"hotelprices/models"
)

// observationRecord is the parquet schema of the aggregated price table.
type observationRecord struct {
	RoomName       string  `parquet:"name=room_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	StartDate      string  `parquet:"name=start_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	StopDate       string  `parquet:"name=stop_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Hotel          string  `parquet:"name=hotel, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp      int64   `parquet:"name=timestamp, type=INT64"`
	CollectionDate int64   `parquet:"name=collection_date, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Price          float64 `parquet:"name=price, type=DOUBLE"`
}

// memFile is an in-memory source.ParquetFile. Writers append to buf;
// readers get an independent cursor over data for every Open.
type memFile struct {
	buf  *bytes.Buffer
	data []byte
	r    *bytes.Reader
}

func newMemWriter() *memFile {
	return &memFile{buf: &bytes.Buffer{}}
}

func newMemReader(data []byte) *memFile {
	return &memFile{data: data, r: bytes.NewReader(data)}
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }

func (m *memFile) Open(string) (source.ParquetFile, error) {
	if m.r == nil {
		return m, nil
	}
	return newMemReader(m.data), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	if m.r == nil {
		return int64(m.buf.Len()), nil
	}
	return m.r.Seek(offset, whence)
}

func (m *memFile) Read(b []byte) (int, error) {
	if m.r == nil {
		return 0, io.EOF
	}
	return m.r.Read(b)
}

func (m *memFile) Write(b []byte) (int, error) {
	if m.buf == nil {
		return 0, errors.New("parquet buffer is read-only")
	}
	return m.buf.Write(b)
}

func (m *memFile) Close() error  { return nil }
func (m *memFile) Bytes() []byte { return m.buf.Bytes() }

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(name) {
	case "", "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "UNCOMPRESSED":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported parquet compression %q", name)
	}
}

// Encode writes rows as a single parquet file.
func Encode(rows []models.PriceObservation, cfg config.ParquetConfig) ([]byte, error) {
	codec, err := compressionCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	mf := newMemWriter()
	pw, err := writer.NewParquetWriter(mf, new(observationRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = codec
	if cfg.RowGroupSize > 0 {
		pw.RowGroupSize = cfg.RowGroupSize
	}

	for _, row := range rows {
		rec := observationRecord{
			RoomName:       row.RoomName,
			StartDate:      row.StartDate,
			StopDate:       row.StopDate,
			Hotel:          row.Hotel,
			Timestamp:      row.Timestamp,
			CollectionDate: row.CollectionDate.UnixMilli(),
			Price:          row.Price.InexactFloat64(),
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("write parquet row: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return mf.Bytes(), nil
}

// Decode reads a table produced by Encode.
func Decode(data []byte) ([]models.PriceObservation, error) {
	pr, err := reader.NewParquetReader(newMemReader(data), new(observationRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	records := make([]observationRecord, n)
	if n > 0 {
		if err := pr.Read(&records); err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
	}

	rows := make([]models.PriceObservation, 0, len(records))
	for _, rec := range records {
		rows = append(rows, models.PriceObservation{
			RoomName:       rec.RoomName,
			StartDate:      rec.StartDate,
			StopDate:       rec.StopDate,
			Hotel:          rec.Hotel,
			Timestamp:      rec.Timestamp,
			CollectionDate: time.UnixMilli(rec.CollectionDate).UTC(),
			Price:          decimal.NewFromFloat(rec.Price),
		})
	}
	return rows, nil
}
