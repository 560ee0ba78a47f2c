package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/delilah-resto/api/internal/models"
	"github.com/delilah-resto/api/internal/validate"
)

type PaymentHandler struct {
	DB *gorm.DB
}

func (h *PaymentHandler) byOption(c echo.Context) (*models.PaymentMethod, error) {
	option, err := strconv.Atoi(c.Param("id"))
	if err != nil || option < 1 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payment option")
	}

	var method models.PaymentMethod
	if err := h.DB.Where("option = ?", option).First(&method).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound,
				"The method you are trying to update/delete does not exist.")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Unexpected error in registered method.")
	}
	return &method, nil
}

func (h *PaymentHandler) Create(c echo.Context) error {
	var req struct {
		Method string `json:"method"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if verr := validate.PaymentMethodName(req.Method); verr != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Message})
	}

	// Option assignment happens here, in the same transaction as the
	// insert, so the 1..n sequence stays dense under concurrent admins.
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PaymentMethod{}).Count(&count).Error; err != nil {
			return err
		}
		method := models.PaymentMethod{Method: req.Method, Option: uint(count) + 1}
		return tx.Create(&method).Error
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unable to add the payment method."})
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "The payment method has been added."})
}

func (h *PaymentHandler) List(c echo.Context) error {
	var methods []models.PaymentMethod
	if err := h.DB.Order("option ASC").Find(&methods).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not access payment methods."})
	}

	type methodView struct {
		Method string `json:"method"`
		Option uint   `json:"option"`
	}
	views := make([]methodView, 0, len(methods))
	for _, m := range methods {
		views = append(views, methodView{Method: m.Method, Option: m.Option})
	}

	return c.JSON(http.StatusOK, views)
}

func (h *PaymentHandler) Update(c echo.Context) error {
	method, err := h.byOption(c)
	if err != nil {
		return err
	}

	var req struct {
		Method string `json:"method"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if verr := validate.PaymentMethodName(req.Method); verr != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Message})
	}

	method.Method = req.Method
	if err := h.DB.Save(method).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "The payment method could not be updated."})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "The payment method has been updated."})
}

// Delete removes a method and renumbers the remaining options to their
// 1-based rank so the sequence stays gap-free. O(n) per deletion, which
// is fine for an admin-only list this small.
func (h *PaymentHandler) Delete(c echo.Context) error {
	method, err := h.byOption(c)
	if err != nil {
		return err
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(method).Error; err != nil {
			return err
		}

		var remaining []models.PaymentMethod
		if err := tx.Order("option ASC").Find(&remaining).Error; err != nil {
			return err
		}
		for i := range remaining {
			rank := uint(i) + 1
			if remaining[i].Option == rank {
				continue
			}
			remaining[i].Option = rank
			if err := tx.Save(&remaining[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "The payment method could not be deleted."})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "The payment method has been deleted."})
}
