package asset

// Well-known assets covered by the scanner.
var (
	BTC   = New("BTC", "Bitcoin")
	ETH   = New("ETH", "Ethereum")
	XRP   = New("XRP", "XRP")
	ADA   = New("ADA", "Cardano")
	DOT   = New("DOT", "Polkadot")
	SOL   = New("SOL", "Solana")
	DOGE  = New("DOGE", "Dogecoin")
	SHIB  = New("SHIB", "Shiba Inu")
	LTC   = New("LTC", "Litecoin")
	LINK  = New("LINK", "Chainlink")
	MATIC = New("MATIC", "Polygon")
	AVAX  = New("AVAX", "Avalanche")
	XLM   = New("XLM", "Stellar")
	UNI   = New("UNI", "Uniswap")
	BCH   = New("BCH", "Bitcoin Cash")
	FIL   = New("FIL", "Filecoin")
	VET   = New("VET", "VeChain")
	ALGO  = New("ALGO", "Algorand")
	ATOM  = New("ATOM", "Cosmos")
	ICP   = New("ICP", "Internet Computer")
)

// DefaultRegistry returns a registry pre-populated with the scanner's
// asset universe.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []*Asset{
		BTC, ETH, XRP, ADA, DOT, SOL, DOGE, SHIB, LTC, LINK,
		MATIC, AVAX, XLM, UNI, BCH, FIL, VET, ALGO, ATOM, ICP,
	} {
		r.Register(a)
	}
	return r
}
