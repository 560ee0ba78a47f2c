package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/delilah-resto/api/internal/models"
)

func createPayment(t *testing.T, env *testEnv, name string) {
	t.Helper()

	rec, c := env.doJSON(http.MethodPost, "/payment", map[string]string{"method": name})
	require.NoError(t, env.Payment.Create(c))
	requireStatus(t, rec, http.StatusCreated)
}

func TestCreatePaymentAssignsDenseOptions(t *testing.T) {
	env := newTestEnv(t)

	createPayment(t, env, "Cash")
	createPayment(t, env, "Credit Card")
	createPayment(t, env, "Bank Transfer")

	var methods []models.PaymentMethod
	require.NoError(t, env.DB.Order("option ASC").Find(&methods).Error)
	require.Len(t, methods, 3)
	for i, m := range methods {
		require.Equal(t, uint(i+1), m.Option)
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSON(http.MethodPost, "/payment", map[string]string{"method": "ab"})
	require.NoError(t, env.Payment.Create(c))
	requireStatus(t, rec, http.StatusBadRequest)

	var count int64
	env.DB.Model(&models.PaymentMethod{}).Count(&count)
	require.Zero(t, count)
}

func TestListPayments(t *testing.T) {
	env := newTestEnv(t)

	createPayment(t, env, "Cash")
	createPayment(t, env, "Credit Card")

	rec, c := env.doJSON(http.MethodGet, "/payment", nil)
	require.NoError(t, env.Payment.List(c))
	requireStatus(t, rec, http.StatusOK)

	var views []struct {
		Method string `json:"method"`
		Option uint   `json:"option"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	require.Equal(t, "Cash", views[0].Method)
	require.Equal(t, uint(1), views[0].Option)
}

func TestUpdatePayment(t *testing.T) {
	env := newTestEnv(t)

	createPayment(t, env, "Cash")

	rec, c := env.doJSON(http.MethodPut, "/payment/1", map[string]string{"method": "Debit Card"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Payment.Update(c))
	requireStatus(t, rec, http.StatusOK)

	var method models.PaymentMethod
	require.NoError(t, env.DB.Where("option = ?", 1).First(&method).Error)
	require.Equal(t, "Debit Card", method.Method)

	_, c = env.doJSON(http.MethodPut, "/payment/9", map[string]string{"method": "Debit Card"})
	c.SetParamNames("id")
	c.SetParamValues("9")
	err := env.Payment.Update(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestDeletePaymentRenumbersOptions(t *testing.T) {
	env := newTestEnv(t)

	createPayment(t, env, "Cash")
	createPayment(t, env, "Credit Card")
	createPayment(t, env, "Bank Transfer")

	rec, c := env.doJSON(http.MethodDelete, "/payment/2", nil)
	c.SetParamNames("id")
	c.SetParamValues("2")
	require.NoError(t, env.Payment.Delete(c))
	requireStatus(t, rec, http.StatusOK)

	var methods []models.PaymentMethod
	require.NoError(t, env.DB.Order("option ASC").Find(&methods).Error)
	require.Len(t, methods, 2)
	require.Equal(t, "Cash", methods[0].Method)
	require.Equal(t, uint(1), methods[0].Option)
	require.Equal(t, "Bank Transfer", methods[1].Method)
	require.Equal(t, uint(2), methods[1].Option)

	// A new method takes the freed slot.
	createPayment(t, env, "Crypto")
	var last models.PaymentMethod
	require.NoError(t, env.DB.Where("method = ?", "Crypto").First(&last).Error)
	require.Equal(t, uint(3), last.Option)
}
