package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fernet/fernet-go"
	"go.uber.org/zap"

	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/coingecko"
	"github.com/jblomberg5r/CryptoValhalla/internal/config"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
	"github.com/jblomberg5r/CryptoValhalla/internal/repository"
)

// coingeckoKeySetting is the system_setting key holding the encrypted
// CoinGecko API key.
const coingeckoKeySetting = "coingecko_api_key"

// SettingsService manages runtime settings. Secrets are stored as fernet
// tokens in the system_setting table; the plaintext only ever lives in
// memory. Updating the CoinGecko API key also pushes it into the market
// client so the change takes effect without a restart.
type SettingsService struct {
	settingRepo *repository.SettingRepository
	market      *coingecko.MarketClient
	keys        []*fernet.Key
	logger      *zap.Logger
}

// NewSettingsService creates a new SettingsService. An empty fernet key in
// the configuration is allowed; encrypted writes are then rejected with
// ErrEncryptionUnavailable until a key is configured.
func NewSettingsService(
	settingRepo *repository.SettingRepository,
	market *coingecko.MarketClient,
	cfg config.FernetConfig,
	logger *zap.Logger,
) (*SettingsService, error) {
	s := &SettingsService{
		settingRepo: settingRepo,
		market:      market,
		logger:      logger,
	}

	if cfg.Key != "" {
		key, err := fernet.DecodeKey(cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("invalid FERNET_KEY: %w", err)
		}
		s.keys = []*fernet.Key{key}
	}

	return s, nil
}

// SetCoingeckoAPIKey encrypts and stores the CoinGecko API key, then pushes
// it into the market client. Returns the masked setting.
func (s *SettingsService) SetCoingeckoAPIKey(ctx context.Context, apiKey string) (model.SettingResponse, error) {
	if s.keys == nil {
		return model.SettingResponse{}, apperrors.ErrEncryptionUnavailable
	}

	apiKey = strings.TrimSpace(apiKey)

	token, err := fernet.EncryptAndSign([]byte(apiKey), s.keys[0])
	if err != nil {
		return model.SettingResponse{}, fmt.Errorf("failed to encrypt setting: %w", err)
	}

	setting := model.Setting{
		Key:         coingeckoKeySetting,
		Value:       string(token),
		IsEncrypted: true,
	}

	if err := s.settingRepo.UpsertSetting(ctx, setting); err != nil {
		return model.SettingResponse{}, apperrors.ErrFailedToStoreSetting
	}

	s.market.SetAPIKey(apiKey)
	s.logger.Info("CoinGecko API key updated")

	return s.GetCoingeckoAPIKey()
}

// GetCoingeckoAPIKey retrieves the stored CoinGecko API key with all but the
// last characters masked. Returns ErrSettingNotFound when no key is stored.
func (s *SettingsService) GetCoingeckoAPIKey() (model.SettingResponse, error) {
	setting, err := s.settingRepo.GetSetting(coingeckoKeySetting)
	if err != nil {
		return model.SettingResponse{}, err
	}

	apiKey, err := s.decrypt(setting)
	if err != nil {
		return model.SettingResponse{}, err
	}

	return model.SettingResponse{
		Key:         setting.Key,
		Value:       maskSecret(apiKey),
		IsEncrypted: setting.IsEncrypted,
		UpdatedAt:   setting.UpdatedAt,
	}, nil
}

// LoadStoredAPIKey reads the persisted CoinGecko API key at startup and
// pushes it into the market client. A missing setting is not an error; a
// stored key that cannot be decrypted is, since requests would silently run
// unauthenticated otherwise.
func (s *SettingsService) LoadStoredAPIKey(ctx context.Context) error {
	setting, err := s.settingRepo.GetSetting(coingeckoKeySetting)
	if err == apperrors.ErrSettingNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	apiKey, err := s.decrypt(setting)
	if err != nil {
		return err
	}

	s.market.SetAPIKey(apiKey)
	s.logger.Info("loaded CoinGecko API key from settings")

	return nil
}

// decrypt returns the plaintext of a stored setting value. Unencrypted
// values pass through unchanged.
func (s *SettingsService) decrypt(setting model.Setting) (string, error) {
	if !setting.IsEncrypted {
		return setting.Value, nil
	}

	if s.keys == nil {
		return "", apperrors.ErrEncryptionUnavailable
	}

	plaintext := fernet.VerifyAndDecrypt([]byte(setting.Value), 0, s.keys)
	if plaintext == nil {
		return "", fmt.Errorf("failed to decrypt setting %q: token invalid for configured key", setting.Key)
	}

	return string(plaintext), nil
}

// maskSecret hides all but the last four characters of a secret. Short
// secrets are fully masked.
func maskSecret(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
