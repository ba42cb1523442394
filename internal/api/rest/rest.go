package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/walletgraph/walletgraph/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authenticated user endpoints
		v1.GET("/me", middleware.Auth(authCfg), handler.GetMe)
		v1.GET("/me/wallets", middleware.Auth(authCfg), handler.GetMyWallets)
		v1.GET("/me/collections", middleware.Auth(authCfg), handler.GetMyCollections)
		v1.GET("/me/summary", middleware.Auth(authCfg), handler.GetMySummaries)

		// Wallet endpoints (public read access)
		v1.GET("/wallets/:chain/:address", handler.GetWallet)
		v1.GET("/wallets/:chain/:address/balances", handler.GetWalletBalances)
		v1.GET("/wallets/:chain/:address/nfts", handler.GetWalletNfts)
		v1.GET("/wallets/:chain/:address/transactions", handler.GetWalletTransactions)

		// Collection membership endpoints
		v1.GET("/collections/:id/members", middleware.Auth(authCfg), handler.GetCollectionMembers)

		// Ownership validation endpoints (requires authentication)
		v1.POST("/ownership/collection", middleware.Auth(authCfg), handler.ValidateCollectionOwnership)
		v1.POST("/ownership/group", middleware.Auth(authCfg), handler.ValidateGroupOwnership)
	}
}
