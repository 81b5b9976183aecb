package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"valomaison/internal/domain"
)

func transactionsKey(areaCode string) string { return fmt.Sprintf("dvf:%s", areaCode) }
func centreKey(areaCode string) string       { return fmt.Sprintf("geo:centre:%s", areaCode) }
func nearbyKey(areaCode string, radiusKm int) string {
	return fmt.Sprintf("geo:nearby:%s:%d", areaCode, radiusKm)
}

// CachedTransactions is a read-through cache in front of a TransactionSource.
// Failed fetches are not cached.
type CachedTransactions struct {
	src   domain.TransactionSource
	cache domain.Cache
	ttl   time.Duration
}

func NewCachedTransactions(src domain.TransactionSource, c domain.Cache, ttl time.Duration) *CachedTransactions {
	return &CachedTransactions{src: src, cache: c, ttl: ttl}
}

func (s *CachedTransactions) Transactions(ctx context.Context, areaCode string) ([]domain.Transaction, error) {
	key := transactionsKey(areaCode)
	var txs []domain.Transaction
	if ok, err := s.cache.Get(ctx, key, &txs); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if ok {
		return txs, nil
	}

	txs, err := s.src.Transactions(ctx, areaCode)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, txs, int(s.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return txs, nil
}

// Invalidate drops the cached transactions of areaCode.
func (s *CachedTransactions) Invalidate(ctx context.Context, areaCode string) error {
	return s.cache.Del(ctx, transactionsKey(areaCode))
}
