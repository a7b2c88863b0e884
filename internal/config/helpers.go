package config

import (
	solanapkg "folio-api/pkg/chain/solana"
	feedpkg "folio-api/pkg/feed"
)

// MustLoadFeed loads etc/feed.yaml from the project root and panics on error.
// It isolates feed config so tests and the ingestion daemon do not need the
// full service configuration.
func MustLoadFeed() *feedpkg.Config {
	return feedpkg.MustLoad()
}

// MustLoadSolana loads etc/solana.yaml from the project root and panics on error.
func MustLoadSolana() *solanapkg.Config {
	return solanapkg.MustLoad()
}
