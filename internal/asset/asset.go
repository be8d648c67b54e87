// Package asset provides the registry of tradable crypto assets.
package asset

// Asset represents the metadata of a crypto asset. The symbol is the
// identity used across the scanner; the name is display metadata only.
type Asset struct {
	symbol string
	name   string
}

// New creates a new Asset.
func New(symbol, name string) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	return &Asset{symbol: symbol, name: name}
}

// Symbol returns the ticker symbol (e.g., "BTC").
func (a *Asset) Symbol() string {
	return a.symbol
}

// Name returns the human-readable name (e.g., "Bitcoin").
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}
