package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/delilah-resto/api/internal/events"
	"github.com/delilah-resto/api/internal/hash"
	"github.com/delilah-resto/api/internal/models"
	"github.com/delilah-resto/api/internal/service/order"
	"github.com/delilah-resto/api/internal/service/token"
	"github.com/delilah-resto/api/internal/validate"
)

type UserHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Orders   *order.Service
	Producer *events.Producer
}

func (h *UserHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *UserHandler) Register(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if verr := validate.Register(validate.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
	}); verr != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Message})
	}

	var existing models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Email already in use."})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error in user registration."})
	}
	if err := h.DB.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Username already in use."})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error in user registration."})
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Your account could not be created."})
	}

	user := models.User{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: pwHash,
		IsAdmin:      false,
		IsActive:     true,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Your account could not be created."})
	}

	h.publish(c, map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Congratulations!\nYour account has been successfully created.",
	})
}

func (h *UserHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "No user registered with that email."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error."})
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "The password you entered is incorrect."})
	}

	// One active session per account.
	if user.Token != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "You are trying to log in again. This is your token, in case you forgot it:\n" + user.Token,
		})
	}

	if !user.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "The user is suspended."})
	}

	signed, err := h.Tokens.Sign(&user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error."})
	}

	user.Token = signed
	if err := h.DB.Save(&user).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unexpected error."})
	}

	h.publish(c, map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "You are now logged in.",
		"token":   signed,
	})
}

func (h *UserHandler) Logout(c echo.Context) error {
	user := token.CurrentUser(c)

	user.Token = ""
	if err := h.DB.Save(user).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unable to log out."})
	}

	h.publish(c, map[string]any{
		"type":   "user_logged_out",
		"userID": user.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully."})
}

func (h *UserHandler) AddAddress(c echo.Context) error {
	user := token.CurrentUser(c)

	var req struct {
		Address string `json:"address"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if verr := validate.AddressText(req.Address); verr != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Message})
	}

	// The option is assigned here, not in a persistence hook, and stays
	// dense per owner because addresses are never deleted.
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Address{}).Where("owner_id = ?", user.ID).Count(&count).Error; err != nil {
			return err
		}
		address := models.Address{
			Address: req.Address,
			Option:  uint(count) + 1,
			OwnerID: user.ID,
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Unable to add address."})
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "You have added a new address."})
}

func (h *UserHandler) Addresses(c echo.Context) error {
	user := token.CurrentUser(c)

	var addresses []models.Address
	if err := h.DB.Where("owner_id = ?", user.ID).Order("option ASC").Find(&addresses).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not access your addresses."})
	}

	type addressView struct {
		Address string `json:"address"`
		Option  uint   `json:"option"`
	}
	views := make([]addressView, 0, len(addresses))
	for _, a := range addresses {
		views = append(views, addressView{Address: a.Address, Option: a.Option})
	}

	return c.JSON(http.StatusOK, views)
}

func (h *UserHandler) List(c echo.Context) error {
	var users []models.User
	if err := h.DB.Order("id ASC").Find(&users).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not access registered users."})
	}

	type userView struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		IsAdmin  bool   `json:"is_admin"`
		IsActive bool   `json:"is_active"`
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{
			Name:     u.Name,
			Username: u.Username,
			Email:    u.Email,
			Phone:    u.Phone,
			IsAdmin:  u.IsAdmin,
			IsActive: u.IsActive,
		})
	}

	return c.JSON(http.StatusOK, views)
}

// Suspend toggles the active flag: suspending clears the session and
// force-cancels the open order; calling it again reinstates the account
// without resurrecting the order.
func (h *UserHandler) Suspend(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "An user with that email is not registered."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not suspend user."})
	}

	if user.IsAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Admin users cannot be suspended."})
	}

	user.IsActive = !user.IsActive
	user.Token = ""
	if err := h.DB.Save(&user).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not suspend user."})
	}

	if err := h.Orders.CancelOpenFor(user.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not suspend user."})
	}

	h.publish(c, map[string]any{
		"type":   "user_suspended",
		"userID": user.ID,
		"active": user.IsActive,
	})

	status := "suspended."
	if user.IsActive {
		status = "unsuspended."
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "The user has been " + status})
}
