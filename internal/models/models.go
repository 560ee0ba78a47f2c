package models

// Product is a menu entry. Code is the business key customers and admins
// use ("DR" + digits); ID is storage identity only.
type Product struct {
	ID    uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Code  string  `gorm:"uniqueIndex;not null"     json:"ID"`
	Name  string  `gorm:"not null"                 json:"name"`
	Price float64 `gorm:"not null"                 json:"price"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"unique;not null"          json:"email"`
	Phone        string `gorm:"not null"                 json:"phone"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	IsAdmin      bool   `gorm:"not null;default:false"   json:"is_admin"`
	IsActive     bool   `gorm:"not null;default:true"    json:"is_active"`
	// Token holds the current session token. Empty string means no
	// active session.
	Token string `gorm:"default:''" json:"-"`
}

// PaymentMethod options stay dense 1..n; deletion renumbers the rest.
type PaymentMethod struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Method string `gorm:"not null"                 json:"method"`
	Option uint   `gorm:"uniqueIndex"              json:"option"`
}

// Address options are dense per owner and assigned once at creation.
type Address struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Address string `gorm:"not null"                 json:"address"`
	Option  uint   `json:"option"`
	OwnerID uint   `gorm:"index;not null"           json:"owner_id"`
}

type Order struct {
	ID              uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Number          string  `gorm:"uniqueIndex"              json:"order"`
	Total           float64 `gorm:"not null"                 json:"total"`
	PaymentMethodID uint    `gorm:"not null"                 json:"payment_method_id"`
	AddressID       uint    `gorm:"not null"                 json:"address_id"`
	OwnerID         uint    `gorm:"index;not null"           json:"owner_id"`
	State           string  `gorm:"not null"                 json:"state"`
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement"   json:"id"`
	OrderID   uint `gorm:"index;not null"             json:"order_id"`
	ProductID uint `gorm:"not null"                   json:"product_id"`
	Quantity  uint `gorm:"not null;check:quantity>0"  json:"quantity"`
}
