package order

import "github.com/delilah-resto/api/internal/models"

type Line struct {
	Code     string  `json:"ID"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity uint    `json:"quantity"`
}

// View is the denormalized projection of an order. Name and Email are
// filled only for the admin listing.
type View struct {
	Number   string  `json:"order"`
	Products []Line  `json:"products"`
	Total    float64 `json:"total"`
	Payment  string  `json:"payment"`
	Address  string  `json:"address"`
	State    string  `json:"state"`
	Name     string  `json:"name,omitempty"`
	Email    string  `json:"email,omitempty"`
}

// ListAll returns every order joined with product, payment, address and
// owner details. No pagination: the ledger is listed whole.
func (s *Service) ListAll() ([]View, error) {
	var orders []models.Order
	if err := s.DB.Order("id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}

	views := make([]View, 0, len(orders))
	for i := range orders {
		v, err := s.compose(&orders[i], true)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// HistoryFor returns the owner's orders without owner details.
func (s *Service) HistoryFor(ownerID uint) ([]View, error) {
	var orders []models.Order
	if err := s.DB.Where("owner_id = ?", ownerID).Order("id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}

	views := make([]View, 0, len(orders))
	for i := range orders {
		v, err := s.compose(&orders[i], false)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Service) compose(o *models.Order, withOwner bool) (View, error) {
	items, err := s.Items(o)
	if err != nil {
		return View{}, err
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		var p models.Product
		if err := s.DB.First(&p, item.ProductID).Error; err != nil {
			return View{}, err
		}
		lines = append(lines, Line{Code: p.Code, Name: p.Name, Price: p.Price, Quantity: item.Quantity})
	}

	var payment models.PaymentMethod
	if err := s.DB.First(&payment, o.PaymentMethodID).Error; err != nil {
		return View{}, err
	}

	var address models.Address
	if err := s.DB.First(&address, o.AddressID).Error; err != nil {
		return View{}, err
	}

	v := View{
		Number:   o.Number,
		Products: lines,
		Total:    o.Total,
		Payment:  payment.Method,
		Address:  address.Address,
		State:    o.State,
	}

	if withOwner {
		var owner models.User
		if err := s.DB.First(&owner, o.OwnerID).Error; err != nil {
			return View{}, err
		}
		v.Name = owner.Name
		v.Email = owner.Email
	}

	return v, nil
}
