package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/delilah-resto/api/internal/models"
)

func createProduct(t *testing.T, env *testEnv, code, name string, price float64) int {
	t.Helper()

	load := map[string]any{"name": name, "price": price}
	rec, c := env.doJSON(http.MethodPost, "/products/"+code, load)
	c.SetParamNames("id")
	c.SetParamValues(code)
	require.NoError(t, env.Product.Create(c))
	return rec.Code
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)

	code := createProduct(t, env, "DR1", "Onion Soup", 5000)
	require.Equal(t, http.StatusCreated, code)

	var product models.Product
	require.NoError(t, env.DB.Where("code = ?", "DR1").First(&product).Error)
	require.Equal(t, "Onion Soup", product.Name)
	require.Equal(t, float64(5000), product.Price)

	code = createProduct(t, env, "DR1", "Onion Soup", 5000)
	require.Equal(t, http.StatusConflict, code)
}

func TestCreateProductValidation(t *testing.T) {
	env := newTestEnv(t)

	// Codes must look like DR<number>.
	code := createProduct(t, env, "X1", "Onion Soup", 5000)
	require.Equal(t, http.StatusBadRequest, code)

	code = createProduct(t, env, "DR1", "Onion Soup", 0)
	require.Equal(t, http.StatusBadRequest, code)

	var count int64
	env.DB.Model(&models.Product{}).Count(&count)
	require.Zero(t, count)
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)

	createProduct(t, env, "DR1", "Onion Soup", 5000)
	createProduct(t, env, "DR2", "Green Salad", 3000)

	rec, c := env.doJSON(http.MethodGet, "/products", nil)
	require.NoError(t, env.Product.List(c))
	requireStatus(t, rec, http.StatusOK)

	var views []struct {
		Code  string  `json:"ID"`
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	require.Equal(t, "DR1", views[0].Code)
	require.Equal(t, "Onion Soup", views[0].Name)
}

func TestUpdateProduct(t *testing.T) {
	env := newTestEnv(t)

	createProduct(t, env, "DR1", "Onion Soup", 5000)

	load := map[string]any{"name": "French Onion Soup", "price": 6000}
	rec, c := env.doJSON(http.MethodPut, "/products/DR1", load)
	c.SetParamNames("id")
	c.SetParamValues("DR1")
	require.NoError(t, env.Product.Update(c))
	requireStatus(t, rec, http.StatusOK)

	var product models.Product
	require.NoError(t, env.DB.Where("code = ?", "DR1").First(&product).Error)
	require.Equal(t, "French Onion Soup", product.Name)
	require.Equal(t, float64(6000), product.Price)

	rec, c = env.doJSON(http.MethodPut, "/products/DR9", load)
	c.SetParamNames("id")
	c.SetParamValues("DR9")
	require.NoError(t, env.Product.Update(c))
	requireStatus(t, rec, http.StatusNotFound)
	require.Equal(t, "The product you are trying to access does not exist.", errorBody(t, rec))
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t)

	createProduct(t, env, "DR1", "Onion Soup", 5000)

	rec, c := env.doJSON(http.MethodDelete, "/products/DR1", nil)
	c.SetParamNames("id")
	c.SetParamValues("DR1")
	require.NoError(t, env.Product.Delete(c))
	requireStatus(t, rec, http.StatusOK)

	var count int64
	env.DB.Model(&models.Product{}).Count(&count)
	require.Zero(t, count)

	rec, c = env.doJSON(http.MethodDelete, "/products/DR1", nil)
	c.SetParamNames("id")
	c.SetParamValues("DR1")
	require.NoError(t, env.Product.Delete(c))
	requireStatus(t, rec, http.StatusNotFound)
}

func TestSearchProductsUnavailable(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSON(http.MethodGet, "/products/search?q=soup", nil)
	require.NoError(t, env.Product.SearchProducts(c))
	requireStatus(t, rec, http.StatusServiceUnavailable)

	rec, c = env.doJSON(http.MethodGet, "/products/search", nil)
	require.NoError(t, env.Product.SearchProducts(c))
	requireStatus(t, rec, http.StatusBadRequest)
}
