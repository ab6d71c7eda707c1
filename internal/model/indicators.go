package model

import (
	"math"
	"sort"
	"time"
)

// Indicator column names. Condition expressions refer to these.
const (
	ColOpen   = "Open"
	ColHigh   = "High"
	ColLow    = "Low"
	ColClose  = "Close"
	ColVolume = "Volume"

	ColReturns    = "Returns"
	ColLogReturns = "Log_Returns"
	ColRSI        = "RSI"
	ColStochK     = "Stoch_K"
	ColStochD     = "Stoch_D"
	ColMACD       = "MACD"
	ColMACDSignal = "MACD_Signal"
	ColMACDHist   = "MACD_Hist"
	ColEMA9       = "EMA_9"
	ColEMA20      = "EMA_20"
	ColEMA50      = "EMA_50"
	ColADX        = "ADX"
	ColATR        = "ATR"
	ColBBUpper    = "BB_Upper"
	ColBBMiddle   = "BB_Middle"
	ColBBLower    = "BB_Lower"
	ColBBWidth    = "BB_Width"
	ColOBV        = "OBV"
	ColMFI        = "MFI"
	ColSuperTrend = "SuperTrend"
	ColSTDir      = "SuperTrend_Direction"
	ColVWAP       = "VWAP"
	ColSupport    = "Support"
	ColResistance = "Resistance"
	ColVolumeSMA  = "Volume_SMA"
	ColGapUp      = "Gap_Up"
	ColGapDown    = "Gap_Down"
)

// Undefined marks an indicator value that is not yet available.
var Undefined = math.NaN()

// IsUndefined reports whether v is the undefined marker.
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// IndicatorSeries is a price series extended with index-aligned indicator columns.
type IndicatorSeries struct {
	Bars    []Bar
	columns map[string][]float64
}

// NewIndicatorSeries wraps bars with the raw OHLCV columns pre-populated.
func NewIndicatorSeries(bars []Bar) *IndicatorSeries {
	s := &IndicatorSeries{Bars: bars, columns: make(map[string][]float64, 32)}
	open, high, low, cl, vol := Columns(bars)
	s.columns[ColOpen] = open
	s.columns[ColHigh] = high
	s.columns[ColLow] = low
	s.columns[ColClose] = cl
	s.columns[ColVolume] = vol
	return s
}

// Len returns the number of rows.
func (s *IndicatorSeries) Len() int { return len(s.Bars) }

// Set stores a column. Values must be index-aligned with Bars.
func (s *IndicatorSeries) Set(name string, values []float64) {
	if len(values) != len(s.Bars) {
		panic("indicator column " + name + " is not aligned with bars")
	}
	s.columns[name] = values
}

// Column returns a column by name.
func (s *IndicatorSeries) Column(name string) ([]float64, bool) {
	c, ok := s.columns[name]
	return c, ok
}

// ColumnNames returns all column names in sorted order.
func (s *IndicatorSeries) ColumnNames() []string {
	names := make([]string, 0, len(s.columns))
	for k := range s.columns {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Row returns a snapshot of every column at index i.
func (s *IndicatorSeries) Row(i int) Row {
	values := make(map[string]float64, len(s.columns))
	for k, c := range s.columns {
		values[k] = c[i]
	}
	return Row{Index: i, Time: s.Bars[i].Time, values: values}
}

// Latest returns the last row.
func (s *IndicatorSeries) Latest() Row { return s.Row(s.Len() - 1) }

// Previous returns the row before the last one.
func (s *IndicatorSeries) Previous() Row { return s.Row(s.Len() - 2) }

// Row is a read-only view of one bar's indicator values.
type Row struct {
	Index  int
	Time   time.Time
	values map[string]float64
}

// NewRow builds a row from explicit values; missing columns read as absent.
func NewRow(values map[string]float64) Row {
	cp := make(map[string]float64, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Row{values: cp}
}

// Value returns the named column. ok is false when the column is absent or undefined.
func (r Row) Value(name string) (float64, bool) {
	v, ok := r.values[name]
	if !ok || IsUndefined(v) {
		return v, false
	}
	return v, true
}

// Raw returns the named column, Undefined when absent.
func (r Row) Raw(name string) float64 {
	v, ok := r.values[name]
	if !ok {
		return Undefined
	}
	return v
}
