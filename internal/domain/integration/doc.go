// Package integration contains the marketplace integration bounded context.
//
// Key concepts:
//   - MarketplaceClient: port for pulling orders from a sales channel (Mercado Livre, Shopee)
//   - MarketplaceOrder: value object carrying an order as the channel reports it
//   - Registry: lookup of configured clients by platform code
//
// Ports are defined here; adapters live in infrastructure/ecommerce.
package integration
