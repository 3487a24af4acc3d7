package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadCandlesCSV reads candles from a CSV file with columns
// time,open,high,low,close (a header row is detected and skipped).
// Rows must already be in chronological order; out-of-order rows are an error.
func LoadCandlesCSV(path string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candles: %w", err)
	}
	defer f.Close()

	return ReadCandles(f)
}

// ReadCandles parses candle rows from r. See LoadCandlesCSV.
func ReadCandles(r io.Reader) ([]Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		out  []Candle
		prev time.Time
		line int
	)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue
		}

		c, err := parseCandleRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if !prev.IsZero() && c.Time.Before(prev) {
			return nil, fmt.Errorf("row %d: candle time %s before previous %s", line, c.Time, prev)
		}
		prev = c.Time
		out = append(out, c)
	}
}

func parseCandleRow(row []string) (Candle, error) {
	if len(row) < 5 {
		return Candle{}, fmt.Errorf("need 5 cols time,open,high,low,close, got %d", len(row))
	}

	ts := strings.TrimSpace(row[0])
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse("2006-01-02 15:04:05", ts)
		if err2 != nil {
			return Candle{}, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = t2.UTC()
	}

	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Candle{}, fmt.Errorf("bad value %q: %w", row[i+1], err)
		}
		vals[i] = v
	}

	return Candle{Time: t, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}, nil
}
