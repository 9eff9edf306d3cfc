package market

import "math"

// Instrument holds the static metadata for a tradable perp symbol: the price
// step used for book levels and synthetic prints, the rough per-level book
// size, and the size range for ambient tape prints.
type Instrument struct {
	Symbol      string
	Tick        float64 // price step between book levels
	BaseQty     float64 // typical per-level size
	QtyDecimals int     // display precision for generated sizes

	// Ambient print sizes are drawn uniformly from [NoiseQtyMin, NoiseQtyMin+NoiseQtySpan).
	NoiseQtyMin  float64
	NoiseQtySpan float64
}

// Instruments is the fixed set of symbols the simulator knows about. The set
// is not user-extensible at runtime; config may trade a subset of it.
var Instruments = map[string]Instrument{
	"BTCUSDT": {
		Symbol:       "BTCUSDT",
		Tick:         0.5,
		BaseQty:      0.01,
		QtyDecimals:  6,
		NoiseQtyMin:  0.0004,
		NoiseQtySpan: 0.006,
	},
	"ETHUSDT": {
		Symbol:       "ETHUSDT",
		Tick:         0.05,
		BaseQty:      0.2,
		QtyDecimals:  4,
		NoiseQtyMin:  0.01,
		NoiseQtySpan: 0.25,
	},
}

// Supported reports whether symbol is in the known instrument set.
func Supported(symbol string) bool {
	_, ok := Instruments[symbol]
	return ok
}

// Round rounds x to the given number of decimal places, matching the display
// precision the dashboard expects for prices and sizes.
func Round(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}
