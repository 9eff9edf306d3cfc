package sim

// Position is a per-symbol holding. Quantity is signed: positive long,
// negative short, zero flat. Entry is the weighted-average cost basis and is
// meaningful only while Quantity is nonzero; flattening resets it to zero.
type Position struct {
	Quantity float64 `json:"qty"`
	Entry    float64 `json:"entry"`
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
