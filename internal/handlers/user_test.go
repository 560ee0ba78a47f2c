package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/delilah-resto/api/internal/models"
	"github.com/delilah-resto/api/internal/service/order"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	load := map[string]string{
		"name":     "Ana Gomez",
		"username": "anagomez",
		"password": "password",
		"email":    "ana@example.com",
		"phone":    "3735648623",
	}
	rec, c := env.doJSON(http.MethodPost, "/users/register", load)
	require.NoError(t, env.User.Register(c))
	requireStatus(t, rec, http.StatusCreated)

	var user models.User
	require.NoError(t, env.DB.Where("username = ?", "anagomez").First(&user).Error)
	require.False(t, user.IsAdmin)
	require.True(t, user.IsActive)
	require.NotEqual(t, "password", user.PasswordHash)

	// Same email again.
	rec, c = env.doJSON(http.MethodPost, "/users/register", load)
	require.NoError(t, env.User.Register(c))
	requireStatus(t, rec, http.StatusConflict)
	require.Equal(t, "Email already in use.", errorBody(t, rec))

	// Same username, different email.
	load["email"] = "ana2@example.com"
	rec, c = env.doJSON(http.MethodPost, "/users/register", load)
	require.NoError(t, env.User.Register(c))
	requireStatus(t, rec, http.StatusConflict)
	require.Equal(t, "Username already in use.", errorBody(t, rec))
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	load := map[string]string{
		"name":     "Ana Gomez",
		"username": "anagomez",
		"password": "password",
		"email":    "not-an-email",
		"phone":    "3735648623",
	}
	rec, c := env.doJSON(http.MethodPost, "/users/register", load)
	require.NoError(t, env.User.Register(c))
	requireStatus(t, rec, http.StatusBadRequest)
	require.Equal(t, "You must enter a valid email.", errorBody(t, rec))

	var count int64
	env.DB.Model(&models.User{}).Count(&count)
	require.Zero(t, count)
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	user := env.seedCustomer(t, "ana@example.com")

	load := map[string]string{"email": "ana@example.com", "password": "password"}
	rec, c := env.doJSON(http.MethodPost, "/users/login", load)
	require.NoError(t, env.User.Login(c))
	requireStatus(t, rec, http.StatusOK)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])

	require.NoError(t, env.DB.First(user, user.ID).Error)
	require.Equal(t, resp["token"], user.Token)

	// A second login while the session is alive is refused.
	rec, c = env.doJSON(http.MethodPost, "/users/login", load)
	require.NoError(t, env.User.Login(c))
	requireStatus(t, rec, http.StatusBadRequest)

	rec, c = env.doJSON(http.MethodPost, "/users/logout", nil)
	c.Set("user", user)
	require.NoError(t, env.User.Logout(c))
	requireStatus(t, rec, http.StatusOK)

	require.NoError(t, env.DB.First(user, user.ID).Error)
	require.Empty(t, user.Token)

	// And the session can be reopened afterwards.
	rec, c = env.doJSON(http.MethodPost, "/users/login", load)
	require.NoError(t, env.User.Login(c))
	requireStatus(t, rec, http.StatusOK)
}

func TestLoginRejections(t *testing.T) {
	env := newTestEnv(t)

	user := env.seedCustomer(t, "ana@example.com")

	load := map[string]string{"email": "nobody@example.com", "password": "password"}
	rec, c := env.doJSON(http.MethodPost, "/users/login", load)
	require.NoError(t, env.User.Login(c))
	requireStatus(t, rec, http.StatusUnauthorized)
	require.Equal(t, "No user registered with that email.", errorBody(t, rec))

	load = map[string]string{"email": "ana@example.com", "password": "wrong"}
	rec, c = env.doJSON(http.MethodPost, "/users/login", load)
	require.NoError(t, env.User.Login(c))
	requireStatus(t, rec, http.StatusUnauthorized)

	user.IsActive = false
	require.NoError(t, env.DB.Save(user).Error)

	load = map[string]string{"email": "ana@example.com", "password": "password"}
	rec, c = env.doJSON(http.MethodPost, "/users/login", load)
	require.NoError(t, env.User.Login(c))
	requireStatus(t, rec, http.StatusForbidden)
	require.Equal(t, "The user is suspended.", errorBody(t, rec))
}

func TestAddresses(t *testing.T) {
	env := newTestEnv(t)

	user := env.seedCustomer(t, "ana@example.com")
	other := env.seedCustomer(t, "bob@example.com")
	env.seedAddress(t, other, "Somewhere Else 1", 1)

	for _, text := range []string{"Av Siempreviva 742", "Calle Falsa 123"} {
		rec, c := env.doJSON(http.MethodPost, "/users/address", map[string]string{"address": text})
		c.Set("user", user)
		require.NoError(t, env.User.AddAddress(c))
		requireStatus(t, rec, http.StatusCreated)
	}

	rec, c := env.doJSON(http.MethodGet, "/users/address", nil)
	c.Set("user", user)
	require.NoError(t, env.User.Addresses(c))
	requireStatus(t, rec, http.StatusOK)

	var views []struct {
		Address string `json:"address"`
		Option  uint   `json:"option"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	require.Equal(t, uint(1), views[0].Option)
	require.Equal(t, "Av Siempreviva 742", views[0].Address)
	require.Equal(t, uint(2), views[1].Option)

	rec, c = env.doJSON(http.MethodPost, "/users/address", map[string]string{"address": ""})
	c.Set("user", user)
	require.NoError(t, env.User.AddAddress(c))
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestSuspendToggle(t *testing.T) {
	env := newTestEnv(t)

	user := env.seedCustomer(t, "ana@example.com")
	user.Token = "some-session-token"
	require.NoError(t, env.DB.Save(user).Error)

	product := env.seedProduct(t, "DR1", "Onion Soup", 5000)
	payment := env.seedPayment(t, "Cash", 1)
	address := env.seedAddress(t, user, "Av Siempreviva 742", 1)

	_, err := env.Orders.Place(user.ID, product, 1, payment, address)
	require.NoError(t, err)

	load := map[string]string{"email": "ana@example.com"}
	rec, c := env.doJSON(http.MethodPut, "/users/suspend", load)
	require.NoError(t, env.User.Suspend(c))
	requireStatus(t, rec, http.StatusOK)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "The user has been suspended.", resp["message"])

	require.NoError(t, env.DB.First(user, user.ID).Error)
	require.False(t, user.IsActive)
	require.Empty(t, user.Token)

	var o models.Order
	require.NoError(t, env.DB.Where("owner_id = ?", user.ID).First(&o).Error)
	require.Equal(t, order.StateCancelled, o.State)

	// Second call reinstates the account but not the order.
	rec, c = env.doJSON(http.MethodPut, "/users/suspend", load)
	require.NoError(t, env.User.Suspend(c))
	requireStatus(t, rec, http.StatusOK)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "The user has been unsuspended.", resp["message"])

	require.NoError(t, env.DB.First(user, user.ID).Error)
	require.True(t, user.IsActive)
	require.NoError(t, env.DB.Where("owner_id = ?", user.ID).First(&o).Error)
	require.Equal(t, order.StateCancelled, o.State)
}

func TestSuspendAdminRejected(t *testing.T) {
	env := newTestEnv(t)

	admin := env.seedCustomer(t, "admin@example.com")
	admin.IsAdmin = true
	require.NoError(t, env.DB.Save(admin).Error)

	rec, c := env.doJSON(http.MethodPut, "/users/suspend", map[string]string{"email": "admin@example.com"})
	require.NoError(t, env.User.Suspend(c))
	requireStatus(t, rec, http.StatusForbidden)
	require.Equal(t, "Admin users cannot be suspended.", errorBody(t, rec))

	rec, c = env.doJSON(http.MethodPut, "/users/suspend", map[string]string{"email": "ghost@example.com"})
	require.NoError(t, env.User.Suspend(c))
	requireStatus(t, rec, http.StatusNotFound)
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)

	env.seedCustomer(t, "ana@example.com")
	env.seedCustomer(t, "bob@example.com")

	rec, c := env.doJSON(http.MethodGet, "/users", nil)
	require.NoError(t, env.User.List(c))
	requireStatus(t, rec, http.StatusOK)

	var views []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	require.Equal(t, "ana@example.com", views[0]["email"])
	require.NotContains(t, views[0], "password")
	require.NotContains(t, views[0], "token")
}
