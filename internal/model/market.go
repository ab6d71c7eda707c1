package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientData is returned when a series is too short for the requested computation.
// Callers skip the instrument; it is never fatal.
var ErrInsufficientData = errors.New("insufficient data")

// Bar represents a single OHLCV candlestick.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// TypicalPrice returns (H+L+C)/3.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// PriceSeries holds raw chronological bars for one instrument.
type PriceSeries struct {
	Symbol    string    `json:"symbol"`
	Period    string    `json:"period"`
	Interval  string    `json:"interval"`
	Bars      []Bar     `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Latest returns the most recent bar.
func (s *PriceSeries) Latest() (Bar, bool) {
	if s.Len() == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Validate checks ordering and price sanity.
func (s *PriceSeries) Validate() error {
	return ValidateBars(s.Bars)
}

// ValidateBars checks that bars are non-empty, strictly increasing in time,
// have positive OHLC values and non-negative volume.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return ErrInsufficientData
	}
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d: non-positive price", i)
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d: negative volume", i)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar %d: timestamp %s not after %s", i, b.Time, bars[i-1].Time)
		}
	}
	return nil
}

// Closes extracts the close prices.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Columns splits bars into parallel OHLCV slices.
func Columns(bars []Bar) (open, high, low, close, volume []float64) {
	n := len(bars)
	open = make([]float64, n)
	high = make([]float64, n)
	low = make([]float64, n)
	close = make([]float64, n)
	volume = make([]float64, n)
	for i, b := range bars {
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		close[i] = b.Close
		volume[i] = b.Volume
	}
	return
}
