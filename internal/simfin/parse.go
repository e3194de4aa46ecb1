package simfin

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ternarybob/valuescreen/internal/models"
)

// ParseSnapshot reads a semicolon-separated snapshot. Empty or unparseable
// numeric cells become NaN so the record is excluded from screening downstream.
// Rows with the wrong number of fields are skipped and counted.
func ParseSnapshot(r io.Reader, columns Columns) ([]models.EquityRecord, int, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}

	idx, err := resolveColumns(header, columns)
	if err != nil {
		return nil, 0, err
	}

	var records []models.EquityRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("failed to read row: %w", err)
		}
		if len(row) != len(header) {
			skipped++
			continue
		}

		records = append(records, models.EquityRecord{
			Ticker:       strings.TrimSpace(row[idx.ticker]),
			MarketCap:    parseFloat(row[idx.marketCap]),
			ROE:          parseFloat(row[idx.roe]),
			DebtToEquity: parseFloat(row[idx.debtToEquity]),
			PE:           parseFloat(row[idx.pe]),
			Price:        parseFloat(row[idx.price]),
		})
	}

	return records, skipped, nil
}

type columnIndex struct {
	ticker, marketCap, roe, debtToEquity, pe, price int
}

func resolveColumns(header []string, columns Columns) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		// strip a UTF-8 BOM from the first header cell
		h = strings.TrimPrefix(h, "\ufeff")
		positions[strings.ToLower(strings.TrimSpace(h))] = i
	}

	find := func(field, column string) (int, error) {
		i, ok := positions[strings.ToLower(strings.TrimSpace(column))]
		if !ok {
			return 0, &MissingColumnError{Field: field, Column: column}
		}
		return i, nil
	}

	var idx columnIndex
	var err error
	if idx.ticker, err = find("ticker", columns.Ticker); err != nil {
		return idx, err
	}
	if idx.marketCap, err = find("marketcap", columns.MarketCap); err != nil {
		return idx, err
	}
	if idx.roe, err = find("roe", columns.ROE); err != nil {
		return idx, err
	}
	if idx.debtToEquity, err = find("debt2equity", columns.DebtToEquity); err != nil {
		return idx, err
	}
	if idx.pe, err = find("pe", columns.PE); err != nil {
		return idx, err
	}
	if idx.price, err = find("price", columns.Price); err != nil {
		return idx, err
	}
	return idx, nil
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
