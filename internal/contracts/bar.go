package contracts

import (
	"fmt"
	"time"
)

// Bar represents one weekly OHLCV bar for a single stock.
// Bars are immutable once ingested; a series is ordered by strictly
// increasing date.
type Bar struct {
	Code   string    `json:"code"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Validate checks the OHLC consistency invariants for a single bar.
func (b *Bar) Validate() error {
	if b.High < b.Open || b.High < b.Close {
		return fmt.Errorf("bar %s %s: high %.4f below open/close", b.Code, b.Date.Format("2006-01-02"), b.High)
	}
	if b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("bar %s %s: low %.4f above open/close", b.Code, b.Date.Format("2006-01-02"), b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s %s: negative volume %d", b.Code, b.Date.Format("2006-01-02"), b.Volume)
	}
	return nil
}

// ValidateSeries checks that a bar series is well formed: every bar valid,
// all bars for the same code, dates strictly increasing with no duplicates.
func ValidateSeries(bars []Bar) error {
	for i := range bars {
		if err := bars[i].Validate(); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		if bars[i].Code != bars[0].Code {
			return fmt.Errorf("bar series mixes codes %s and %s", bars[0].Code, bars[i].Code)
		}
		if !bars[i].Date.After(bars[i-1].Date) {
			return fmt.Errorf("bar series %s: dates not strictly increasing at %s",
				bars[i].Code, bars[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}
