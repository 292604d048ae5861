package ecommerce

import (
	"context"
	"strconv"

	"github.com/erp/backoffice/internal/domain/integration"
	infraconfig "github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/google/uuid"
)

var _ integration.CredentialProvider = (*ConfigCredentialProvider)(nil)

// ConfigCredentialProvider serves the seller credentials from application
// configuration. Every company shares the configured accounts.
type ConfigCredentialProvider struct {
	cfg infraconfig.MarketplaceConfig
}

// NewConfigCredentialProvider creates a provider over the marketplace config
func NewConfigCredentialProvider(cfg infraconfig.MarketplaceConfig) *ConfigCredentialProvider {
	return &ConfigCredentialProvider{cfg: cfg}
}

// Credential returns the configured credential for platform
func (p *ConfigCredentialProvider) Credential(_ context.Context, companyID uuid.UUID, platform integration.PlatformCode) (integration.Credential, error) {
	if companyID == uuid.Nil {
		return integration.Credential{}, integration.ErrInvalidCompanyID
	}
	cred := integration.Credential{CompanyID: companyID, Platform: platform}

	switch platform {
	case integration.PlatformMercadoLivre:
		if !p.cfg.MercadoLivre.Enabled {
			return integration.Credential{}, integration.ErrPlatformNotConfigured
		}
		cred.SellerID = p.cfg.MercadoLivre.SellerID
		cred.AccessToken = p.cfg.MercadoLivre.AccessToken
	case integration.PlatformShopee:
		if !p.cfg.Shopee.Enabled {
			return integration.Credential{}, integration.ErrPlatformNotConfigured
		}
		cred.ShopID = strconv.FormatInt(p.cfg.Shopee.ShopID, 10)
		cred.AccessToken = p.cfg.Shopee.AccessToken
	default:
		return integration.Credential{}, integration.ErrInvalidPlatformCode
	}
	return cred, nil
}

// NewRegistry builds a registry holding an adapter for every enabled channel
func NewRegistry(cfg infraconfig.MarketplaceConfig) *integration.Registry {
	var clients []integration.MarketplaceClient
	if cfg.MercadoLivre.Enabled {
		clients = append(clients, NewMercadoLivreAdapter(cfg.MercadoLivre))
	}
	if cfg.Shopee.Enabled {
		clients = append(clients, NewShopeeAdapter(cfg.Shopee))
	}
	return integration.NewRegistry(clients...)
}
