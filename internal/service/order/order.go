// Package order implements the order ledger: line-item reconciliation,
// the running total, the sequential order number and the lifecycle
// state rules.
package order

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/delilah-resto/api/internal/models"
)

const (
	StateOpen      = "open"
	StateConfirmed = "confirmed"
	StatePreparing = "preparing"
	StateShipping  = "shipping"
	StateDelivered = "delivered"
	StateCancelled = "cancelled"
)

var (
	ErrOpenOrderExists = errors.New("you can't have more than one open order")
	ErrProductNotInOrder = errors.New("you do not have an open order with the product " +
		"you are trying to remove")
	ErrQuantityExceeds = errors.New("you cannot remove a quantity greater than the original quantity")
)

// CustomerStateAllowed reports whether a customer may move an open order
// into state.
func CustomerStateAllowed(state string) bool {
	switch state {
	case StateConfirmed, StateCancelled:
		return true
	}
	return false
}

// AdminStateAllowed reports whether an admin may set state on an order.
// The set check is the only validation: the transition graph is not
// enforced, matching the API this ledger replaces.
func AdminStateAllowed(state string) bool {
	switch state {
	case StatePreparing, StateShipping, StateCancelled, StateDelivered:
		return true
	}
	return false
}

type Service struct {
	DB *gorm.DB
}

// OpenFor returns the owner's open order, or gorm.ErrRecordNotFound.
func (s *Service) OpenFor(ownerID uint) (*models.Order, error) {
	var o models.Order
	if err := s.DB.Where("owner_id = ? AND state = ?", ownerID, StateOpen).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Service) ByNumber(number string) (*models.Order, error) {
	var o models.Order
	if err := s.DB.Where("number = ?", number).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// Place creates a new order with a single line item. The order number is
// assigned here, once, inside the creating transaction, and never
// changes afterwards.
func (s *Service) Place(ownerID uint, product *models.Product, quantity uint, payment *models.PaymentMethod, address *models.Address) (*models.Order, error) {
	var o models.Order

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var open models.Order
		err := tx.Where("owner_id = ? AND state = ?", ownerID, StateOpen).First(&open).Error
		if err == nil {
			return ErrOpenOrderExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var count int64
		if err := tx.Model(&models.Order{}).Count(&count).Error; err != nil {
			return err
		}

		o = models.Order{
			Number:          fmt.Sprintf("#%d", count+1),
			Total:           float64(quantity) * product.Price,
			PaymentMethodID: payment.ID,
			AddressID:       address.ID,
			OwnerID:         ownerID,
			State:           StateOpen,
		}
		if err := tx.Create(&o).Error; err != nil {
			return err
		}

		item := models.OrderItem{OrderID: o.ID, ProductID: product.ID, Quantity: quantity}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}

	return &o, nil
}

// AddProduct increments an existing line item or appends a new one, and
// adds quantity x price to the running total.
func (s *Service) AddProduct(o *models.Order, product *models.Product, quantity uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		err := tx.Where("order_id = ? AND product_id = ?", o.ID, product.ID).First(&item).Error
		switch {
		case err == nil:
			item.Quantity += quantity
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.OrderItem{OrderID: o.ID, ProductID: product.ID, Quantity: quantity}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		default:
			return err
		}

		o.Total += float64(quantity) * product.Price
		return tx.Save(o).Error
	})
}

// RemoveProduct decrements or removes the product's line item. Removing
// more units than the order holds fails without touching the order.
func (s *Service) RemoveProduct(o *models.Order, product *models.Product, quantity uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		err := tx.Where("order_id = ? AND product_id = ?", o.ID, product.ID).First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotInOrder
			}
			return err
		}

		switch {
		case quantity > item.Quantity:
			return ErrQuantityExceeds
		case quantity == item.Quantity:
			if err := tx.Delete(&item).Error; err != nil {
				return err
			}
		default:
			item.Quantity -= quantity
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		}

		o.Total -= float64(quantity) * product.Price
		return tx.Save(o).Error
	})
}

func (s *Service) SetPayment(o *models.Order, payment *models.PaymentMethod) error {
	o.PaymentMethodID = payment.ID
	return s.DB.Save(o).Error
}

func (s *Service) SetAddress(o *models.Order, address *models.Address) error {
	o.AddressID = address.ID
	return s.DB.Save(o).Error
}

// SetState persists the new state unconditionally; callers are expected
// to have checked the role's allowed set.
func (s *Service) SetState(o *models.Order, state string) error {
	o.State = state
	return s.DB.Save(o).Error
}

// CancelOpenFor force-cancels the owner's open order if one exists. Used
// when an account is suspended.
func (s *Service) CancelOpenFor(ownerID uint) error {
	o, err := s.OpenFor(ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.SetState(o, StateCancelled)
}

// Items returns the order's line items.
func (s *Service) Items(o *models.Order) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := s.DB.Where("order_id = ?", o.ID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
