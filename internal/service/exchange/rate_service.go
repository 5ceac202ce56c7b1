// Package exchange 提供汇率与手续费服务
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Treessss/CaseLedger/internal/common/cache"
	"github.com/Treessss/CaseLedger/internal/common/config"
	"github.com/Treessss/CaseLedger/internal/common/errors"
	"github.com/Treessss/CaseLedger/internal/common/logger"
	"github.com/Treessss/CaseLedger/internal/common/metrics"
	"github.com/Treessss/CaseLedger/internal/common/utils"
)

// SupportedCurrencies 支持的币种
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "CNY"}

// 外部接口全部失败时的兜底汇率
var defaultRates = map[string]float64{
	"USD_CNY": 7.2,
	"EUR_CNY": 7.8,
	"GBP_CNY": 9.1,
	"CAD_CNY": 5.3,
	"AUD_CNY": 4.8,
	"JPY_CNY": 0.048,
}

// cachedRate 本地缓存条目
type cachedRate struct {
	rate      float64
	fetchedAt time.Time
}

// RateService 汇率服务
// 查询顺序: 本地缓存 -> Redis -> 外部接口 -> 兜底汇率
type RateService struct {
	cfg        *config.ExchangeRateConfig
	redis      *redis.Client
	httpClient *http.Client

	mu    sync.RWMutex
	local map[string]cachedRate
}

// NewRateService 创建汇率服务
func NewRateService(cfg *config.ExchangeRateConfig, redisClient *redis.Client) *RateService {
	return &RateService{
		cfg:   cfg,
		redis: redisClient,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		local: make(map[string]cachedRate),
	}
}

// IsSupported 币种是否受支持
func IsSupported(currency string) bool {
	return utils.Contains(SupportedCurrencies, currency)
}

// GetRate 获取汇率
func (s *RateService) GetRate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}
	if !IsSupported(from) || !IsSupported(to) {
		return 0, errors.ErrCurrencyNotSupported.WithMessage(
			fmt.Sprintf("不支持的币种: %s/%s", from, to))
	}

	key := from + "_" + to
	m := metrics.GetMetrics()

	// 本地缓存
	s.mu.RLock()
	if entry, ok := s.local[key]; ok && time.Since(entry.fetchedAt) < s.cfg.CacheDuration() {
		s.mu.RUnlock()
		m.RecordRateCacheHit("local")
		return entry.rate, nil
	}
	s.mu.RUnlock()
	m.RecordRateCacheMiss("local")

	// Redis 二级缓存
	if s.redis != nil {
		redisKey := cache.BuildKey(cache.KeyPrefixRate, key)
		if v, err := s.redis.Get(ctx, redisKey).Float64(); err == nil && v > 0 {
			m.RecordRateCacheHit("redis")
			s.storeLocal(key, v)
			return v, nil
		}
		m.RecordRateCacheMiss("redis")
	}

	// 外部接口
	if rate, ok := s.fetchRate(ctx, from, to); ok {
		s.store(ctx, key, rate)
		return rate, nil
	}

	// 兜底汇率
	if rate, ok := s.fallbackRate(from, to); ok {
		logger.Warn("使用兜底汇率",
			logger.Currency(key),
			logger.Float64("rate", rate),
		)
		return rate, nil
	}

	logger.Error("汇率获取失败，返回1", logger.Currency(key))
	return 1, nil
}

// Convert 金额换算，结果保留两位小数
// 目标币种为空时不换算，原金额取整返回
func (s *RateService) Convert(ctx context.Context, amount float64, from, to string) (float64, float64, error) {
	if to == "" {
		return utils.Round2(amount), 1, nil
	}
	rate, err := s.GetRate(ctx, from, to)
	if err != nil {
		return 0, 0, err
	}
	return utils.MulRound2(amount, rate), rate, nil
}

// Refresh 刷新所有支持币种对人民币的汇率
func (s *RateService) Refresh(ctx context.Context) {
	for _, currency := range SupportedCurrencies {
		if currency == "CNY" {
			continue
		}
		key := currency + "_CNY"
		if rate, ok := s.fetchRate(ctx, currency, "CNY"); ok {
			s.store(ctx, key, rate)
			logger.Debug("汇率已刷新",
				logger.Currency(key),
				logger.Float64("rate", rate),
			)
		}
	}
}

// Rates 返回当前生效的汇率表
func (s *RateService) Rates(ctx context.Context) map[string]float64 {
	result := make(map[string]float64)
	for _, currency := range SupportedCurrencies {
		if currency == "CNY" {
			continue
		}
		rate, err := s.GetRate(ctx, currency, "CNY")
		if err != nil {
			continue
		}
		result[currency+"_CNY"] = rate
	}
	return result
}

// storeLocal 写入本地缓存
func (s *RateService) storeLocal(key string, rate float64) {
	s.mu.Lock()
	s.local[key] = cachedRate{rate: rate, fetchedAt: time.Now()}
	s.mu.Unlock()
}

// store 写入本地缓存与 Redis
func (s *RateService) store(ctx context.Context, key string, rate float64) {
	s.storeLocal(key, rate)
	if s.redis != nil {
		redisKey := cache.BuildKey(cache.KeyPrefixRate, key)
		if err := s.redis.Set(ctx, redisKey, rate, s.cfg.CacheDuration()).Err(); err != nil {
			logger.Warn("汇率写入Redis失败", logger.Err(err))
		}
	}
}

// fetchRate 依次尝试外部汇率接口
func (s *RateService) fetchRate(ctx context.Context, from, to string) (float64, bool) {
	providers := []struct {
		name  string
		fetch func(context.Context, string, string) (float64, error)
	}{
		{"exchangerate-api", s.fetchFromExchangeRateAPI},
		{"fixer", s.fetchFromFixer},
		{"exchangerate-host", s.fetchFromExchangeRateHost},
	}

	m := metrics.GetMetrics()
	for _, p := range providers {
		rate, err := p.fetch(ctx, from, to)
		if err != nil {
			m.RecordRateFetch(p.name, "error")
			logger.Debug("汇率接口请求失败",
				logger.String("provider", p.name),
				logger.Err(err),
			)
			continue
		}
		if rate <= 0 {
			m.RecordRateFetch(p.name, "invalid")
			continue
		}
		m.RecordRateFetch(p.name, "ok")
		return rate, true
	}
	return 0, false
}

// fallbackRate 查找兜底汇率，支持反向换算
func (s *RateService) fallbackRate(from, to string) (float64, bool) {
	if rate, ok := defaultRates[from+"_"+to]; ok {
		return rate, true
	}
	if rate, ok := defaultRates[to+"_"+from]; ok && rate > 0 {
		return utils.DivRound(1, rate, 6), true
	}
	// 经人民币中转
	fromCNY, ok1 := defaultRates[from+"_CNY"]
	toCNY, ok2 := defaultRates[to+"_CNY"]
	if ok1 && ok2 && toCNY > 0 {
		return utils.DivRound(fromCNY, toCNY, 6), true
	}
	return 0, false
}

// fetchFromExchangeRateAPI 调用 exchangerate-api.com
func (s *RateService) fetchFromExchangeRateAPI(ctx context.Context, from, to string) (float64, error) {
	url := fmt.Sprintf("https://api.exchangerate-api.com/v4/latest/%s", from)
	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := s.getJSON(ctx, url, &payload); err != nil {
		return 0, err
	}
	rate, ok := payload.Rates[to]
	if !ok {
		return 0, fmt.Errorf("rate %s not in response", to)
	}
	return rate, nil
}

// fetchFromFixer 调用 fixer.io，需要 API key
func (s *RateService) fetchFromFixer(ctx context.Context, from, to string) (float64, error) {
	if s.cfg.FixerAPIKey == "" {
		return 0, fmt.Errorf("fixer api key not configured")
	}
	url := fmt.Sprintf("http://data.fixer.io/api/latest?access_key=%s&base=%s&symbols=%s",
		s.cfg.FixerAPIKey, from, to)
	var payload struct {
		Success bool               `json:"success"`
		Rates   map[string]float64 `json:"rates"`
	}
	if err := s.getJSON(ctx, url, &payload); err != nil {
		return 0, err
	}
	if !payload.Success {
		return 0, fmt.Errorf("fixer request unsuccessful")
	}
	rate, ok := payload.Rates[to]
	if !ok {
		return 0, fmt.Errorf("rate %s not in response", to)
	}
	return rate, nil
}

// fetchFromExchangeRateHost 调用 exchangerate.host
func (s *RateService) fetchFromExchangeRateHost(ctx context.Context, from, to string) (float64, error) {
	url := fmt.Sprintf("https://api.exchangerate.host/latest?base=%s&symbols=%s", from, to)
	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := s.getJSON(ctx, url, &payload); err != nil {
		return 0, err
	}
	rate, ok := payload.Rates[to]
	if !ok {
		return 0, fmt.Errorf("rate %s not in response", to)
	}
	return rate, nil
}

// getJSON 发起 GET 请求并解析 JSON 响应
func (s *RateService) getJSON(ctx context.Context, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
