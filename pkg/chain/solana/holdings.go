package solana

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"folio-api/pkg/portfolio"
)

const (
	lamportsPerSol = 1e9
	nativeDecimals = 9
)

// GetBalance returns the owner's native balance in lamports.
func (c *Client) GetBalance(ctx context.Context, owner string) (uint64, error) {
	var result balanceResult
	params := []interface{}{owner, map[string]string{"commitment": c.commitment}}
	if err := c.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetTokenBalances returns the owner's SPL token balances aggregated per
// mint. An owner holding the same mint in several token accounts gets one
// combined balance.
func (c *Client) GetTokenBalances(ctx context.Context, owner string) ([]TokenBalance, error) {
	var result tokenAccountsResult
	params := []interface{}{
		owner,
		map[string]string{"programId": TokenProgramID},
		map[string]string{"encoding": "jsonParsed", "commitment": c.commitment},
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, err
	}

	type acc struct {
		total    *big.Int
		decimals int
	}
	byMint := make(map[string]*acc)
	for _, entry := range result.Value {
		info := entry.Account.Data.Parsed.Info
		if info.Mint == "" {
			continue
		}
		raw, ok := new(big.Int).SetString(info.TokenAmount.Amount, 10)
		if !ok {
			c.logf("solana: skip token account %s: bad amount %q", entry.Pubkey, info.TokenAmount.Amount)
			continue
		}
		a, exists := byMint[info.Mint]
		if !exists {
			a = &acc{total: new(big.Int), decimals: info.TokenAmount.Decimals}
			byMint[info.Mint] = a
		}
		a.total.Add(a.total, raw)
	}

	balances := make([]TokenBalance, 0, len(byMint))
	for mint, a := range byMint {
		balances = append(balances, TokenBalance{
			Mint:      mint,
			AmountRaw: a.total.String(),
			Decimals:  a.decimals,
		})
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Mint < balances[j].Mint })
	return balances, nil
}

// FetchHoldings assembles the owner's unpriced holdings: the native balance
// as a wrapped-SOL position plus one holding per token mint. Zero balances
// are dropped. Prices and cost basis are attached downstream.
func (c *Client) FetchHoldings(ctx context.Context, owner string) ([]portfolio.Holding, error) {
	lamports, err := c.GetBalance(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("solana: fetch native balance: %w", err)
	}
	tokens, err := c.GetTokenBalances(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("solana: fetch token balances: %w", err)
	}

	holdings := make([]portfolio.Holding, 0, len(tokens)+1)
	if lamports > 0 {
		meta := MetaForMint(NativeMint)
		raw := fmt.Sprintf("%d", lamports)
		holdings = append(holdings, portfolio.Holding{
			Chain:     portfolio.ChainSolana,
			Address:   owner,
			AssetID:   NativeMint,
			Symbol:    meta.Symbol,
			Name:      meta.Name,
			Decimals:  nativeDecimals,
			AmountRaw: raw,
			Amount:    float64(lamports) / lamportsPerSol,
		})
	}
	for _, tb := range tokens {
		amount := portfolio.UIAmount(tb.AmountRaw, tb.Decimals)
		if amount <= 0 {
			continue
		}
		meta := MetaForMint(tb.Mint)
		holdings = append(holdings, portfolio.Holding{
			Chain:     portfolio.ChainSolana,
			Address:   owner,
			AssetID:   tb.Mint,
			Symbol:    meta.Symbol,
			Name:      meta.Name,
			Decimals:  tb.Decimals,
			AmountRaw: tb.AmountRaw,
			Amount:    amount,
		})
	}
	return holdings, nil
}
