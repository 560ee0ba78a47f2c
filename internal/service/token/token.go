package token

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/delilah-resto/api/internal/models"
)

const sessionTTL = 24 * time.Hour

// Service authenticates bearer tokens against the single session token
// stored on the user row. Logging out or suspending clears that token,
// which invalidates every previously issued copy.
type Service struct {
	DB     *gorm.DB
	Secret []byte
}

func (s *Service) Sign(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(sessionTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.Secret)
}

func (s *Service) Authenticate(c echo.Context) (*models.User, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	if raw == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Please authenticate.")
	}

	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !t.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Please authenticate.")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Please authenticate.")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Please authenticate.")
	}

	var user models.User
	if err := s.DB.First(&user, uint(sub)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Please authenticate.")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Unexpected error.")
	}

	// A token that no longer matches the stored one belongs to a closed
	// session.
	if user.Token == "" || user.Token != raw {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Please authenticate.")
	}
	if !user.IsActive {
		return nil, echo.NewHTTPError(http.StatusForbidden, "The user is suspended.")
	}

	return &user, nil
}

// RequireCustomer admits authenticated non-admin accounts.
func (s *Service) RequireCustomer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := s.Authenticate(c)
		if err != nil {
			return err
		}
		if user.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "You need to be logged in as a customer.")
		}
		c.Set("user", user)
		return next(c)
	}
}

// RequireAdmin admits authenticated admin accounts.
func (s *Service) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := s.Authenticate(c)
		if err != nil {
			return err
		}
		if !user.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "You need admin privileges to perform this operation.")
		}
		c.Set("user", user)
		return next(c)
	}
}

// RequireUser admits any authenticated account.
func (s *Service) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := s.Authenticate(c)
		if err != nil {
			return err
		}
		c.Set("user", user)
		return next(c)
	}
}

// CurrentUser returns the account the middleware stored on the context.
func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get("user").(*models.User); ok {
		return u
	}
	return nil
}
