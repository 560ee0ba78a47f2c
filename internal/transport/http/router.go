package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/delilah-resto/api/internal/handlers"
	"github.com/delilah-resto/api/internal/service/token"
)

type Deps struct {
	UserHandler    *handlers.UserHandler
	ProductHandler *handlers.ProductHandler
	PaymentHandler *handlers.PaymentHandler
	OrderHandler   *handlers.OrderHandler
	Tokens         *token.Service
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	users := e.Group("/users")
	users.POST("/register", d.UserHandler.Register)
	users.POST("/login", d.UserHandler.Login)
	users.POST("/logout", d.UserHandler.Logout, d.Tokens.RequireUser)
	users.GET("", d.UserHandler.List, d.Tokens.RequireAdmin)
	users.PUT("/suspend", d.UserHandler.Suspend, d.Tokens.RequireAdmin)
	users.POST("/address", d.UserHandler.AddAddress, d.Tokens.RequireCustomer)
	users.GET("/address", d.UserHandler.Addresses, d.Tokens.RequireCustomer)

	products := e.Group("/products")
	products.GET("", d.ProductHandler.List)
	products.GET("/search", d.ProductHandler.SearchProducts)
	products.POST("/:id", d.ProductHandler.Create, d.Tokens.RequireAdmin)
	products.PUT("/:id", d.ProductHandler.Update, d.Tokens.RequireAdmin)
	products.DELETE("/:id", d.ProductHandler.Delete, d.Tokens.RequireAdmin)

	payment := e.Group("/payment")
	payment.POST("", d.PaymentHandler.Create, d.Tokens.RequireAdmin)
	payment.GET("", d.PaymentHandler.List, d.Tokens.RequireUser)
	payment.PUT("/:id", d.PaymentHandler.Update, d.Tokens.RequireAdmin)
	payment.DELETE("/:id", d.PaymentHandler.Delete, d.Tokens.RequireAdmin)

	orders := e.Group("/orders")
	orders.GET("", d.OrderHandler.ListAll, d.Tokens.RequireAdmin)
	orders.GET("/history", d.OrderHandler.History, d.Tokens.RequireCustomer)
	orders.POST("/:id", d.OrderHandler.Place, d.Tokens.RequireCustomer)
	orders.PUT("/addProduct/:id", d.OrderHandler.AddProduct, d.Tokens.RequireCustomer)
	orders.PUT("/removeProduct/:id", d.OrderHandler.RemoveProduct, d.Tokens.RequireCustomer)
	orders.PUT("/payment/:id", d.OrderHandler.UpdatePayment, d.Tokens.RequireCustomer)
	orders.PUT("/address", d.OrderHandler.UpdateAddress, d.Tokens.RequireCustomer)
	orders.PUT("/state/customer", d.OrderHandler.StateCustomer, d.Tokens.RequireCustomer)
	orders.PUT("/state/admin", d.OrderHandler.StateAdmin, d.Tokens.RequireAdmin)
}
