package solana

import "strings"

// NativeMint is the wrapped-SOL mint, used as the native balance's asset id
// so the price feed resolves it like any other token.
const NativeMint = "So11111111111111111111111111111111111111112"

// TokenMeta is the display metadata attached to a holding.
type TokenMeta struct {
	Symbol string
	Name   string
}

// knownMints covers the majors; everything else falls back to a derived
// symbol until richer metadata exists.
var knownMints = map[string]TokenMeta{
	NativeMint: {Symbol: "SOL", Name: "Solana"},
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {Symbol: "USDC", Name: "USD Coin"},
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": {Symbol: "USDT", Name: "Tether USD"},
}

// MetaForMint resolves display metadata for a mint. Unknown mints get the
// first four characters of the address, uppercased, as a placeholder symbol.
func MetaForMint(mint string) TokenMeta {
	if meta, ok := knownMints[mint]; ok {
		return meta
	}
	short := mint
	if len(short) > 4 {
		short = short[:4]
	}
	short = strings.ToUpper(short)
	return TokenMeta{Symbol: short, Name: short}
}
