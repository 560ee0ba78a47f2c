// Package validate holds the typed input validators for every write
// endpoint. Each validator returns a *FieldError (nil means valid) so
// handlers can map the failing field straight to a 400 response.
package validate

import "regexp"

type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

var (
	nameRe     = regexp.MustCompile(`^[ a-zA-Z]+$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[a-zA-Z]{2,}$`)
	phoneRe    = regexp.MustCompile(`^[0-9]{7,12}$`)
	codeRe     = regexp.MustCompile(`^DR[0-9]+$`)
	plainRe    = regexp.MustCompile(`^[ a-zA-Z0-9]+$`)
)

type RegisterInput struct {
	Name     string
	Username string
	Password string
	Email    string
	Phone    string
}

func Register(in RegisterInput) *FieldError {
	if len(in.Name) < 3 || len(in.Name) > 32 || !nameRe.MatchString(in.Name) {
		return &FieldError{
			Field: "name",
			Message: "You must enter a name with a length between " +
				"3-32 characters only containing letters and spaces.",
		}
	}
	if !emailRe.MatchString(in.Email) {
		return &FieldError{Field: "email", Message: "You must enter a valid email."}
	}
	if len(in.Username) < 3 || len(in.Username) > 32 || !usernameRe.MatchString(in.Username) {
		return &FieldError{
			Field: "username",
			Message: "You must enter an username with a length " +
				"between 3-32 characters only containing letters and numbers.",
		}
	}
	if len(in.Password) < 6 || len(in.Password) > 32 {
		return &FieldError{
			Field: "password",
			Message: "You must enter a password with a length " +
				"between 6-32 characters.",
		}
	}
	if !phoneRe.MatchString(in.Phone) {
		return &FieldError{Field: "phone", Message: "You must enter a valid phone number."}
	}
	return nil
}

type ProductInput struct {
	Code  string
	Name  string
	Price float64
}

func Product(in ProductInput) *FieldError {
	if !codeRe.MatchString(in.Code) {
		return &FieldError{
			Field: "ID",
			Message: "The products ID must start with \"DR\" followed" +
				" by at least one number.",
		}
	}
	if len(in.Name) < 3 || len(in.Name) > 32 || !plainRe.MatchString(in.Name) {
		return &FieldError{
			Field: "name",
			Message: "You must enter a name with a length between " +
				"3-32 characters and only contain letters, numbers and spaces.",
		}
	}
	if in.Price < 1 {
		return &FieldError{Field: "price", Message: "The price must be a positive number."}
	}
	return nil
}

func PaymentMethodName(method string) *FieldError {
	if len(method) < 3 || len(method) > 32 || !plainRe.MatchString(method) {
		return &FieldError{
			Field: "method",
			Message: "The method's name must have a length between " +
				"3-32 characters and only contain letters, numbers and spaces.",
		}
	}
	return nil
}

func AddressText(address string) *FieldError {
	if address == "" {
		return &FieldError{Field: "address", Message: "You must provide an address."}
	}
	return nil
}

type NewOrderInput struct {
	Quantity int
	Payment  int
	Address  int
	State    string
}

func NewOrder(in NewOrderInput) *FieldError {
	if in.Payment < 1 {
		return &FieldError{
			Field: "payment",
			Message: "You need to use an existing " +
				"payment method (payment).",
		}
	}
	if in.Quantity < 1 {
		return &FieldError{Field: "quantity", Message: "The product quantity must be greater than 0."}
	}
	if in.State != "open" {
		return &FieldError{Field: "state", Message: "Only \"open\" is a valid state for new orders."}
	}
	if in.Address < 1 {
		return &FieldError{Field: "address", Message: "You need to provide an address."}
	}
	return nil
}

// Quantity validates the ?quantity=N query value of line-item mutations.
func Quantity(n int, verb string) *FieldError {
	if n < 1 {
		return &FieldError{
			Field:   "quantity",
			Message: "The units to " + verb + " must be greater than 0.",
		}
	}
	return nil
}
