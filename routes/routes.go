package routes

import (
	"github.com/gin-gonic/gin"

	"fintrack_backend/controllers"
	"fintrack_backend/middleware"
	"fintrack_backend/services"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	Auth     *services.AuthService
	Alerts   *services.AlertService
	Currency *services.CurrencyService
	Stocks   *services.StockService
	Budgets  *services.BudgetService
}

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, svc *Services) {
	// Initialize controllers
	authController := controllers.NewAuthController(svc.Auth)
	alertController := controllers.NewAlertController(svc.Alerts)
	currencyController := controllers.NewCurrencyController(svc.Currency)
	stockController := controllers.NewStockController(svc.Stocks)
	budgetController := controllers.NewBudgetController(svc.Budgets)

	authRequired := middleware.AuthRequired(svc.Auth)

	// API v1 group
	api := router.Group("/api/v1")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", authController.Login)
		}

		// Alert routes (authenticated)
		alerts := api.Group("/alerts", authRequired)
		{
			alerts.POST("", alertController.Create)
			alerts.GET("", alertController.List)
			alerts.GET("/triggered", alertController.Triggered)
			alerts.GET("/:id", alertController.Get)
			alerts.POST("/:id/toggle", alertController.Toggle)
			alerts.DELETE("/:id", alertController.Delete)
		}

		// Currency routes
		currency := api.Group("/currency")
		{
			currency.GET("/rates", currencyController.Rates)
			currency.GET("/rates/:base/:target/latest", currencyController.SpecificRate)
			currency.GET("/rates/:base/:target/history", currencyController.History)
			currency.POST("/convert", currencyController.Convert)
			currency.GET("/supported", currencyController.Supported)
		}

		// Stock routes
		stock := api.Group("/stock")
		{
			stock.GET("/quote/:symbol", stockController.Quote)
			stock.GET("/historical/:symbol", stockController.Historical)
			stock.GET("/search/:query", stockController.Search)
			stock.GET("/trending", stockController.Trending)
			stock.GET("/market-indices", stockController.MarketIndices)
		}

		// Budget routes (authenticated)
		budgets := api.Group("/budgets", authRequired)
		{
			budgets.POST("", budgetController.Create)
			budgets.GET("", budgetController.List)
			budgets.GET("/summary", budgetController.Summary)
			budgets.GET("/:id", budgetController.Get)
			budgets.PUT("/:id", budgetController.Update)
			budgets.DELETE("/:id", budgetController.Delete)
			budgets.GET("/:id/convert", budgetController.Convert)
		}
	}
}
