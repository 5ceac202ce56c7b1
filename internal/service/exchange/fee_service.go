package exchange

import (
	"context"

	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/common/errors"
	"github.com/Treessss/CaseLedger/internal/common/logger"
	"github.com/Treessss/CaseLedger/internal/common/utils"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
)

// FeeService 手续费服务
type FeeService struct {
	feeConfigRepo *repository.FeeConfigRepository
	rateService   *RateService
}

// NewFeeService 创建手续费服务
func NewFeeService(feeConfigRepo *repository.FeeConfigRepository, rateService *RateService) *FeeService {
	return &FeeService{feeConfigRepo: feeConfigRepo, rateService: rateService}
}

// CreateFeeConfigRequest 创建手续费配置请求
type CreateFeeConfigRequest struct {
	Name        string  `json:"name" binding:"required"`
	Method      string  `json:"method" binding:"required"`
	Percentage  float64 `json:"percentage"`
	FixedAmount float64 `json:"fixed_amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
}

// CreateFeeConfig 创建手续费配置
func (s *FeeService) CreateFeeConfig(ctx context.Context, req *CreateFeeConfigRequest) (*models.FeeConfig, error) {
	if !models.IsValidFeeMethod(req.Method) {
		return nil, errors.ErrFeeMethodInvalid
	}
	if req.Percentage < 0 || req.FixedAmount < 0 {
		return nil, errors.ErrInvalidParams.WithMessage("费率和固定金额不能为负")
	}

	if _, err := s.feeConfigRepo.GetByName(ctx, req.Name); err == nil {
		return nil, errors.ErrFeeConfigExists
	} else if err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "CNY"
	}

	config := &models.FeeConfig{
		Name:        req.Name,
		Method:      req.Method,
		Percentage:  req.Percentage,
		FixedAmount: req.FixedAmount,
		Currency:    currency,
		Description: req.Description,
		Enabled:     true,
	}

	if err := s.feeConfigRepo.Create(ctx, config); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return config, nil
}

// UpdateFeeConfigRequest 更新手续费配置请求
type UpdateFeeConfigRequest struct {
	Method      *string  `json:"method"`
	Percentage  *float64 `json:"percentage"`
	FixedAmount *float64 `json:"fixed_amount"`
	Description *string  `json:"description"`
	Enabled     *bool    `json:"enabled"`
}

// UpdateFeeConfig 更新手续费配置
func (s *FeeService) UpdateFeeConfig(ctx context.Context, id int64, req *UpdateFeeConfigRequest) (*models.FeeConfig, error) {
	config, err := s.feeConfigRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrFeeConfigNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if req.Method != nil {
		if !models.IsValidFeeMethod(*req.Method) {
			return nil, errors.ErrFeeMethodInvalid
		}
		config.Method = *req.Method
	}
	if req.Percentage != nil {
		if *req.Percentage < 0 {
			return nil, errors.ErrInvalidParams.WithMessage("费率不能为负")
		}
		config.Percentage = *req.Percentage
	}
	if req.FixedAmount != nil {
		if *req.FixedAmount < 0 {
			return nil, errors.ErrInvalidParams.WithMessage("固定金额不能为负")
		}
		config.FixedAmount = *req.FixedAmount
	}
	if req.Description != nil {
		config.Description = *req.Description
	}
	if req.Enabled != nil {
		config.Enabled = *req.Enabled
	}

	if err := s.feeConfigRepo.Update(ctx, config); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return config, nil
}

// GetFeeConfig 获取手续费配置
func (s *FeeService) GetFeeConfig(ctx context.Context, id int64) (*models.FeeConfig, error) {
	config, err := s.feeConfigRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrFeeConfigNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return config, nil
}

// ListFeeConfigs 获取手续费配置列表
func (s *FeeService) ListFeeConfigs(ctx context.Context, enabledOnly bool, offset, limit int) ([]*models.FeeConfig, int64, error) {
	configs, total, err := s.feeConfigRepo.List(ctx, enabledOnly, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return configs, total, nil
}

// DeleteFeeConfig 删除手续费配置
func (s *FeeService) DeleteFeeConfig(ctx context.Context, id int64) error {
	if _, err := s.feeConfigRepo.GetByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrFeeConfigNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if err := s.feeConfigRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// DefaultFeeConfigs 常用收款渠道的默认手续费配置
// 费率以小数比例存储，0.044 即 4.4%
func DefaultFeeConfigs() []*models.FeeConfig {
	return []*models.FeeConfig{
		{
			Name:        "PayPal",
			Method:      models.FeeMethodPercentagePlusFixed,
			Percentage:  0.044,
			FixedAmount: 0.3,
			Currency:    "USD",
			Description: "PayPal 标准收款费率",
			Enabled:     true,
		},
		{
			Name:        "Stripe",
			Method:      models.FeeMethodPercentagePlusFixed,
			Percentage:  0.029,
			FixedAmount: 0.3,
			Currency:    "USD",
			Description: "Stripe 标准收款费率",
			Enabled:     true,
		},
		{
			Name:        "Shopify Payments",
			Method:      models.FeeMethodPercentage,
			Percentage:  0.02,
			Currency:    "USD",
			Description: "Shopify Payments 交易费",
			Enabled:     true,
		},
	}
}

// SeedDefaults 配置表为空时写入默认手续费配置
func (s *FeeService) SeedDefaults(ctx context.Context) error {
	_, total, err := s.feeConfigRepo.List(ctx, false, 0, 1)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if total > 0 {
		return nil
	}
	for _, config := range DefaultFeeConfigs() {
		if err := s.feeConfigRepo.Create(ctx, config); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
	}
	return nil
}

// FeeResult 手续费计算结果
type FeeResult struct {
	Amount    float64 `json:"amount"`     // 计费金额，已折算为配置币种
	Fee       float64 `json:"fee"`        // 手续费
	NetAmount float64 `json:"net_amount"` // 净额
	Method    string  `json:"method"`
	Currency  string  `json:"currency"`
}

// CalculateFee 按配置计算手续费
// amountCurrency 与配置币种不同时先折算，折算失败则按原金额计费并告警
// 已停用的配置手续费按零计
func (s *FeeService) CalculateFee(ctx context.Context, configID int64, amount float64, amountCurrency string) (*FeeResult, error) {
	if amount <= 0 {
		return nil, errors.ErrFeeAmountInvalid
	}

	config, err := s.GetFeeConfig(ctx, configID)
	if err != nil {
		return nil, err
	}

	billing := utils.Round2(amount)
	if amountCurrency != "" && amountCurrency != config.Currency {
		if s.rateService == nil {
			logger.Warn("手续费金额折算不可用，按原金额计费",
				logger.Currency(amountCurrency+"_"+config.Currency),
			)
		} else if converted, _, err := s.rateService.Convert(ctx, amount, amountCurrency, config.Currency); err != nil {
			logger.Warn("手续费金额折算失败，按原金额计费",
				logger.Currency(amountCurrency+"_"+config.Currency),
				logger.Err(err),
			)
		} else {
			billing = converted
		}
	}

	result := &FeeResult{
		Amount:    billing,
		NetAmount: billing,
		Method:    config.Method,
		Currency:  config.Currency,
	}
	if !config.Enabled {
		return result, nil
	}

	result.Fee = CalculateFeeAmount(config, billing)
	result.NetAmount = utils.SumRound2(billing, -result.Fee)
	return result, nil
}

// CalculateFeeAmount 纯计算，按配置得出手续费
func CalculateFeeAmount(config *models.FeeConfig, amount float64) float64 {
	switch config.Method {
	case models.FeeMethodPercentage:
		return utils.MulRound2(amount, config.Percentage)
	case models.FeeMethodFixed:
		return utils.Round2(config.FixedAmount)
	case models.FeeMethodPercentagePlusFixed:
		return utils.SumRound2(utils.MulRound2(amount, config.Percentage), config.FixedAmount)
	}
	return 0
}
