package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/delilah-resto/api/internal/cache"
	"github.com/delilah-resto/api/internal/events"
	"github.com/delilah-resto/api/internal/models"
	"github.com/delilah-resto/api/internal/service/search"
	"github.com/delilah-resto/api/internal/validate"
)

// productsCacheKey holds the whole menu listing. Writes delete it, reads
// repopulate it.
const productsCacheKey = "products"

type ProductHandler struct {
	DB       *gorm.DB
	Cache    *cache.Cache
	Search   *search.Service
	Producer *events.Producer
}

type productView struct {
	Code  string  `json:"ID"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["ID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) index(c echo.Context, p models.Product) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Search.IndexProduct(ctx, p); err != nil && !errors.Is(err, search.ErrUnavailable) {
		c.Logger().Errorf("search index error: %v", err)
	}
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if data, ok := h.Cache.Get(ctx, productsCacheKey); ok {
		return c.JSONBlob(http.StatusOK, data)
	}

	var products []models.Product
	if err := h.DB.Order("id ASC").Find(&products).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not access products."})
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, productView{Code: p.Code, Name: p.Name, Price: p.Price})
	}

	if data, err := json.Marshal(views); err == nil {
		h.Cache.SetEx(ctx, productsCacheKey, data)
	}

	return c.JSON(http.StatusOK, views)
}

func (h *ProductHandler) SearchProducts(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "You must provide a search query."})
	}

	products, err := h.Search.Products(c.Request().Context(), query, 10)
	if err != nil {
		if errors.Is(err, search.ErrUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Search is not available."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not search products."})
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, productView{Code: p.Code, Name: p.Name, Price: p.Price})
	}

	return c.JSON(http.StatusOK, views)
}

func (h *ProductHandler) Create(c echo.Context) error {
	code := c.Param("id")

	var req struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if verr := validate.Product(validate.ProductInput{Code: code, Name: req.Name, Price: req.Price}); verr != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Message})
	}

	var existing models.Product
	if err := h.DB.Where("code = ?", code).First(&existing).Error; err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "A product with the same ID already exists."})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error in registered product."})
	}

	product := models.Product{Code: code, Name: req.Name, Price: req.Price}
	if err := h.DB.Create(&product).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "The product could not be added."})
	}

	h.Cache.Del(c.Request().Context(), productsCacheKey)
	h.index(c, product)
	h.publish(c, map[string]any{
		"type": "product_created",
		"ID":   product.Code,
		"name": product.Name,
	})

	return c.JSON(http.StatusCreated, echo.Map{"message": "The product has been added."})
}

func (h *ProductHandler) Update(c echo.Context) error {
	code := c.Param("id")

	var product models.Product
	if err := h.DB.Where("code = ?", code).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "The product you are trying to access does not exist."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error in registered product."})
	}

	var req struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if verr := validate.Product(validate.ProductInput{Code: code, Name: req.Name, Price: req.Price}); verr != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Message})
	}

	product.Name = req.Name
	product.Price = req.Price
	if err := h.DB.Save(&product).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "The product could not be updated."})
	}

	h.Cache.Del(c.Request().Context(), productsCacheKey)
	h.index(c, product)
	h.publish(c, map[string]any{
		"type": "product_updated",
		"ID":   product.Code,
		"name": product.Name,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "The product has been updated."})
}

func (h *ProductHandler) Delete(c echo.Context) error {
	code := c.Param("id")

	var product models.Product
	if err := h.DB.Where("code = ?", code).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "The product you are trying to access does not exist."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error in registered product."})
	}

	if err := h.DB.Delete(&product).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "The product could not be deleted."})
	}

	h.Cache.Del(c.Request().Context(), productsCacheKey)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Search.DeleteProduct(ctx, product.Code); err != nil && !errors.Is(err, search.ErrUnavailable) {
		c.Logger().Errorf("search delete error: %v", err)
	}

	h.publish(c, map[string]any{
		"type": "product_deleted",
		"ID":   product.Code,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "The product has been deleted."})
}
