package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dailychow/internal/models"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs. Bank list entries live for the grace window and carry their own
// fetch time, so staleness past the fresh TTL can still be served during a
// provider outage.
const (
	WalletTTL        = 5 * time.Minute
	BankListFreshTTL = time.Hour
	BankListGraceTTL = 24 * time.Hour
	AccountNameTTL   = 24 * time.Hour
)

// Bank is one entry of the transfer provider's bank list.
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type bankListEntry struct {
	Banks     []Bank    `json:"banks"`
	FetchedAt time.Time `json:"fetched_at"`
}

// CacheService wraps Redis with the typed caches the services need.
type CacheService struct {
	client *redis.Client
}

// NewCacheService creates a cache service over the given Redis client.
func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

func (s *CacheService) set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func walletKey(userID uint) string {
	return fmt.Sprintf("wallet:user:%d", userID)
}

// GetWallet returns the cached wallet for the user, or nil on a miss.
func (s *CacheService) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	found, err := s.get(ctx, walletKey(userID), &wallet)
	if err != nil || !found {
		return nil, err
	}
	return &wallet, nil
}

// SetWallet caches the wallet under its user key.
func (s *CacheService) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	return s.set(ctx, walletKey(wallet.UserID), wallet, WalletTTL)
}

// InvalidateWallet drops the cached wallet for the user.
func (s *CacheService) InvalidateWallet(ctx context.Context, userID uint) error {
	return s.client.Del(ctx, walletKey(userID)).Err()
}

const bankListKey = "banks:list"

// SetBankList caches the provider bank list, stamped with the fetch time.
func (s *CacheService) SetBankList(ctx context.Context, banks []Bank) error {
	entry := bankListEntry{Banks: banks, FetchedAt: time.Now()}
	return s.set(ctx, bankListKey, entry, BankListGraceTTL)
}

// GetBankList returns the cached bank list and whether it is still fresh.
// A stale-but-present list may be served when the provider is down.
func (s *CacheService) GetBankList(ctx context.Context) (banks []Bank, fresh bool, err error) {
	var entry bankListEntry
	found, err := s.get(ctx, bankListKey, &entry)
	if err != nil || !found {
		return nil, false, err
	}
	return entry.Banks, time.Since(entry.FetchedAt) < BankListFreshTTL, nil
}

func accountKey(accountNumber, bankCode string) string {
	return fmt.Sprintf("account:%s:%s", accountNumber, bankCode)
}

// GetAccountName returns the cached resolved name for an account, or "" on a
// miss. Resolution results are stable, so entries live for a day.
func (s *CacheService) GetAccountName(ctx context.Context, accountNumber, bankCode string) (string, error) {
	var name string
	found, err := s.get(ctx, accountKey(accountNumber, bankCode), &name)
	if err != nil || !found {
		return "", err
	}
	return name, nil
}

// SetAccountName caches a resolved account name.
func (s *CacheService) SetAccountName(ctx context.Context, accountNumber, bankCode, name string) error {
	return s.set(ctx, accountKey(accountNumber, bankCode), name, AccountNameTTL)
}

// Close closes the underlying Redis connection.
func (s *CacheService) Close() error {
	return s.client.Close()
}
