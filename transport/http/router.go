package http

import (
	"github.com/gin-gonic/gin"

	"github.com/layer-3/smartwallet/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(walletService *service.WalletService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	handlers := NewWalletHandlers(walletService)

	wallets := router.Group("/wallets")
	{
		wallets.POST("", handlers.CreateWallet)
		wallets.GET("/:address", handlers.GetWallet)
		wallets.GET("/:address/authenticators/:passkey", handlers.GetAuthenticator)
		wallets.POST("/:address/message", handlers.PrepareMessage)
		wallets.POST("/:address/transfers", handlers.PrepareTransfer)
		wallets.POST("/:address/execute", handlers.Execute)
	}

	router.GET("/rule-programs", handlers.ListRulePrograms)

	admin := router.Group("/admin")
	admin.Use(AdminMiddleware(walletService))
	{
		admin.POST("/rule-programs", handlers.AddRuleProgram)
		admin.POST("/airdrop", handlers.Airdrop)
	}

	return router
}
