package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/delilah-resto/api/internal/events"
	"github.com/delilah-resto/api/internal/models"
	"github.com/delilah-resto/api/internal/service/order"
	"github.com/delilah-resto/api/internal/service/token"
	"github.com/delilah-resto/api/internal/validate"
)

type OrderHandler struct {
	DB       *gorm.DB
	Orders   *order.Service
	Producer *events.Producer
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["order"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *OrderHandler) productByCode(c echo.Context) (*models.Product, error) {
	code := c.Param("id")

	var product models.Product
	if err := h.DB.Where("code = ?", code).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound,
				"The product you are trying to access does not exist.")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Unexpected error in registered product.")
	}
	return &product, nil
}

// openOrder resolves the customer's single editable order. Line items,
// payment, address and customer state changes are only reachable through
// it, which is what freezes an order once it leaves "open".
func (h *OrderHandler) openOrder(c echo.Context) (*models.Order, error) {
	user := token.CurrentUser(c)

	o, err := h.Orders.OpenFor(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusConflict, "You don't have any open order you can edit.")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Unexpected error.")
	}
	return o, nil
}

func quantityParam(c echo.Context, verb string) (uint, error) {
	n, err := strconv.Atoi(c.QueryParam("quantity"))
	if err != nil {
		n = 0
	}
	if verr := validate.Quantity(n, verb); verr != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, verr.Message)
	}
	return uint(n), nil
}

func (h *OrderHandler) Place(c echo.Context) error {
	user := token.CurrentUser(c)

	product, err := h.productByCode(c)
	if err != nil {
		return err
	}

	var req struct {
		Quantity int    `json:"quantity"`
		Payment  int    `json:"payment"`
		Address  int    `json:"address"`
		State    string `json:"state"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if verr := validate.NewOrder(validate.NewOrderInput{
		Quantity: req.Quantity,
		Payment:  req.Payment,
		Address:  req.Address,
		State:    req.State,
	}); verr != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Message})
	}

	var payment models.PaymentMethod
	if err := h.DB.Where("option = ?", req.Payment).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "You need to use an existing payment method (payment).",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error."})
	}

	var address models.Address
	if err := h.DB.Where("owner_id = ? AND option = ?", user.ID, req.Address).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "You need to provide an address."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error."})
	}

	o, err := h.Orders.Place(user.ID, product, uint(req.Quantity), &payment, &address)
	if err != nil {
		if errors.Is(err, order.ErrOpenOrderExists) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "You can't have more than one open order.\n" +
					"Close or cancel that order to be able to create another order.",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unable to add order."})
	}

	h.publish(c, map[string]any{
		"type":   "order_placed",
		"order":  o.Number,
		"userID": user.ID,
		"total":  o.Total,
	})

	return c.JSON(http.StatusCreated, echo.Map{"message": "The order has been added."})
}

func (h *OrderHandler) ListAll(c echo.Context) error {
	views, err := h.Orders.ListAll()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not access orders."})
	}
	return c.JSON(http.StatusOK, views)
}

func (h *OrderHandler) History(c echo.Context) error {
	user := token.CurrentUser(c)

	views, err := h.Orders.HistoryFor(user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not access this user's orders."})
	}
	if len(views) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "You do not have orders."})
	}
	return c.JSON(http.StatusOK, views)
}

func (h *OrderHandler) AddProduct(c echo.Context) error {
	o, err := h.openOrder(c)
	if err != nil {
		return err
	}
	product, err := h.productByCode(c)
	if err != nil {
		return err
	}
	quantity, err := quantityParam(c, "add")
	if err != nil {
		return err
	}

	if err := h.Orders.AddProduct(o, product, quantity); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not add the product."})
	}

	h.publish(c, map[string]any{
		"type":     "order_product_added",
		"order":    o.Number,
		"ID":       product.Code,
		"quantity": quantity,
		"total":    o.Total,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "The product has been added to the order."})
}

func (h *OrderHandler) RemoveProduct(c echo.Context) error {
	o, err := h.openOrder(c)
	if err != nil {
		return err
	}
	product, err := h.productByCode(c)
	if err != nil {
		return err
	}
	quantity, err := quantityParam(c, "remove")
	if err != nil {
		return err
	}

	if err := h.Orders.RemoveProduct(o, product, quantity); err != nil {
		switch {
		case errors.Is(err, order.ErrProductNotInOrder):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "You do not have an open order with the product you are trying to remove.",
			})
		case errors.Is(err, order.ErrQuantityExceeds):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "You cannot remove a quantity greater than the original quantity.",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not delete/reduce the product."})
	}

	h.publish(c, map[string]any{
		"type":     "order_product_removed",
		"order":    o.Number,
		"ID":       product.Code,
		"quantity": quantity,
		"total":    o.Total,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "The product has been deleted/reduced from the order."})
}

func (h *OrderHandler) UpdatePayment(c echo.Context) error {
	o, err := h.openOrder(c)
	if err != nil {
		return err
	}

	option, err := strconv.Atoi(c.Param("id"))
	if err != nil || option < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment option"})
	}

	var payment models.PaymentMethod
	if err := h.DB.Where("option = ?", option).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "The method you are trying to update/delete does not exist.",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error."})
	}

	if err := h.Orders.SetPayment(o, &payment); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not change the payment method."})
	}

	h.publish(c, map[string]any{
		"type":    "order_payment_updated",
		"order":   o.Number,
		"payment": payment.Method,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "The payment method has been changed."})
}

func (h *OrderHandler) UpdateAddress(c echo.Context) error {
	user := token.CurrentUser(c)

	o, err := h.openOrder(c)
	if err != nil {
		return err
	}

	option, err := strconv.Atoi(c.QueryParam("option"))
	if err != nil || option < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid address option"})
	}

	var address models.Address
	if err := h.DB.Where("owner_id = ? AND option = ?", user.ID, option).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "The address you are trying to access does not exist.",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error."})
	}

	if err := h.Orders.SetAddress(o, &address); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not change the address."})
	}

	h.publish(c, map[string]any{
		"type":  "order_address_updated",
		"order": o.Number,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "The address has been updated."})
}

func (h *OrderHandler) StateCustomer(c echo.Context) error {
	o, err := h.openOrder(c)
	if err != nil {
		return err
	}

	state := c.QueryParam("state")
	if !order.CustomerStateAllowed(state) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "The state could not be changed.\n" +
				"Only \"confirmed\" and \"cancelled\" are valid.",
		})
	}

	if err := h.Orders.SetState(o, state); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not change the order's state."})
	}

	h.publish(c, map[string]any{
		"type":  "order_state_changed",
		"order": o.Number,
		"state": state,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "The order's state has been changed."})
}

// StateAdmin moves any order, located by its number, into an
// admin-allowed state. The current state is deliberately not inspected.
func (h *OrderHandler) StateAdmin(c echo.Context) error {
	number := c.QueryParam("orderId")

	o, err := h.Orders.ByNumber(number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "The order you are trying to edit does not exist."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error."})
	}

	state := c.QueryParam("state")
	if !order.AdminStateAllowed(state) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "The state could not be changed.\n" +
				"Only \"preparing\", \"shipping\", \"cancelled\" and \"delivered\" are valid.",
		})
	}

	if err := h.Orders.SetState(o, state); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not change the order's state."})
	}

	h.publish(c, map[string]any{
		"type":  "order_state_changed",
		"order": o.Number,
		"state": state,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "The order's state has been changed."})
}
