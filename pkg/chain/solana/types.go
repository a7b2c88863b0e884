package solana

import "encoding/json"

// balanceResult is the getBalance response value, in lamports.
type balanceResult struct {
	Value uint64 `json:"value"`
}

// tokenAccountsResult is the getTokenAccountsByOwner response with
// jsonParsed encoding.
type tokenAccountsResult struct {
	Value []tokenAccountEntry `json:"value"`
}

type tokenAccountEntry struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Data struct {
			Parsed struct {
				Info tokenAccountInfo `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"account"`
}

type tokenAccountInfo struct {
	Mint        string      `json:"mint"`
	Owner       string      `json:"owner"`
	TokenAmount tokenAmount `json:"tokenAmount"`
}

type tokenAmount struct {
	Amount   string `json:"amount"`
	Decimals int    `json:"decimals"`
	// uiAmount comes back as a JSON number but may be null for some nodes,
	// so it is decoded loosely and recomputed from Amount when absent.
	UIAmount json.RawMessage `json:"uiAmount"`
}

// TokenBalance is one fungible position of an owner, aggregated per mint.
type TokenBalance struct {
	Mint      string
	AmountRaw string
	Decimals  int
}
