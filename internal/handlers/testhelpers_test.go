package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/delilah-resto/api/internal/cache"
	"github.com/delilah-resto/api/internal/events"
	"github.com/delilah-resto/api/internal/hash"
	"github.com/delilah-resto/api/internal/models"
	"github.com/delilah-resto/api/internal/service/order"
	"github.com/delilah-resto/api/internal/service/search"
	"github.com/delilah-resto/api/internal/service/token"
)

type testEnv struct {
	E       *echo.Echo
	DB      *gorm.DB
	Orders  *order.Service
	Tokens  *token.Service
	User    *UserHandler
	Product *ProductHandler
	Payment *PaymentHandler
	Order   *OrderHandler
}

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.PaymentMethod{},
		&models.Address{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := initTestDB(t)
	orders := &order.Service{DB: db}
	tokens := &token.Service{DB: db, Secret: []byte("test-secret")}
	producer := events.NewProducer(nil)
	store := cache.New("", "", time.Minute)
	searcher := &search.Service{}

	return &testEnv{
		E:       echo.New(),
		DB:      db,
		Orders:  orders,
		Tokens:  tokens,
		User:    &UserHandler{DB: db, Tokens: tokens, Orders: orders, Producer: producer},
		Product: &ProductHandler{DB: db, Cache: store, Search: searcher, Producer: producer},
		Payment: &PaymentHandler{DB: db},
		Order:   &OrderHandler{DB: db, Orders: orders, Producer: producer},
	}
}

func (env *testEnv) doJSON(method, target string, body any) (*httptest.ResponseRecorder, echo.Context) {
	var reader *bytes.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		reader = bytes.NewReader(bodyBytes)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) seedCustomer(t *testing.T, email string) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword("password")
	require.NoError(t, err)

	user := models.User{
		Name:         "Test Customer",
		Username:     strings.Split(email, "@")[0],
		Email:        email,
		Phone:        "3735648623",
		PasswordHash: pwHash,
		IsActive:     true,
	}
	require.NoError(t, env.DB.Create(&user).Error)
	return &user
}

func (env *testEnv) seedProduct(t *testing.T, code, name string, price float64) *models.Product {
	t.Helper()

	product := models.Product{Code: code, Name: name, Price: price}
	require.NoError(t, env.DB.Create(&product).Error)
	return &product
}

func (env *testEnv) seedPayment(t *testing.T, method string, option uint) *models.PaymentMethod {
	t.Helper()

	payment := models.PaymentMethod{Method: method, Option: option}
	require.NoError(t, env.DB.Create(&payment).Error)
	return &payment
}

func (env *testEnv) seedAddress(t *testing.T, owner *models.User, text string, option uint) *models.Address {
	t.Helper()

	address := models.Address{Address: text, Option: option, OwnerID: owner.ID}
	require.NoError(t, env.DB.Create(&address).Error)
	return &address
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["error"]
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
