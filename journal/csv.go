package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	orders *csv.Writer
	equity *csv.Writer
	of, ef *os.File
}

func NewCSV(ordersPath, equityPath string) (*CSVJournal, error) {
	of, err := os.Create(ordersPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		of.Close()
		return nil, err
	}

	ow := csv.NewWriter(of)
	ew := csv.NewWriter(ef)

	if err := ow.Write([]string{"order_id", "time", "instrument", "side", "amount", "quantity", "asset_price", "reason"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"time", "value", "buy_power", "num_holdings"}); err != nil {
		return nil, err
	}

	ow.Flush()
	if err := ow.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{ow, ew, of, ef}, nil
}

func (j *CSVJournal) RecordOrder(o OrderRecord) error {
	err := j.orders.Write([]string{
		o.ID,
		o.Time.Format(time.RFC3339),
		o.Instrument,
		o.Side,
		f(o.Amount),
		f(o.Quantity),
		f(o.AssetPrice),
		o.Reason,
	})
	if err != nil {
		return err
	}

	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSVJournal) RecordSnapshot(s SnapshotRecord) error {
	err := j.equity.Write([]string{
		s.Time.Format(time.RFC3339),
		f(s.Value),
		f(s.BuyPower),
		strconv.Itoa(s.NumHoldings),
	})
	if err != nil {
		return err
	}

	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.orders.Flush()
	if err := j.orders.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.of.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
