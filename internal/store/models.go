package store

import "github.com/jackc/pgx/v5/pgtype"

// All money columns hold minor currency units (paise).

type User struct {
	ID           pgtype.UUID
	Email        string
	PasswordHash string
	Name         string
	Phone        pgtype.Text
	Role         string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type Session struct {
	ID               pgtype.UUID
	UserID           pgtype.UUID
	RefreshTokenHash string
	ExpiresAt        pgtype.Timestamptz
	CreatedAt        pgtype.Timestamptz
}

type Address struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	Label     string
	Line1     string
	Line2     pgtype.Text
	City      string
	Pincode   string
	Lat       float64
	Lon       float64
	IsDefault bool
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Product struct {
	ID          pgtype.UUID
	Name        string
	Slug        string
	Description pgtype.Text
	Category    string
	Unit        string
	Price       int64
	MRP         int64
	Stock       int32
	ImageURL    pgtype.Text
	Active      bool
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// CartItem rows are keyed by user; a user has at most one row per product.
type CartItem struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	ProductID pgtype.UUID
	Name      string
	Unit      string
	Qty       int32
	UnitPrice int64
	Subtotal  int64
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// CartState carries per-user cart metadata such as the applied coupon.
type CartState struct {
	UserID     pgtype.UUID
	CouponCode pgtype.Text
	UpdatedAt  pgtype.Timestamptz
}

type Coupon struct {
	ID           pgtype.UUID
	Code         string
	Description  pgtype.Text
	Discount     int64
	FreeDelivery bool
	MinSpend     int64
	ValidFrom    pgtype.Timestamptz
	ValidTo      pgtype.Timestamptz
	UsageLimit   pgtype.Int4
	UsedCount    int32
	PerUserLimit pgtype.Int4
	Active       bool
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type CouponRedemption struct {
	ID        pgtype.UUID
	CouponID  pgtype.UUID
	UserID    pgtype.UUID
	OrderID   pgtype.UUID
	CreatedAt pgtype.Timestamptz
}

type Order struct {
	ID             pgtype.UUID
	UserID         pgtype.UUID
	AddressID      pgtype.UUID
	DriverID       pgtype.UUID
	Status         string
	Subtotal       int64
	Tax            int64
	DeliveryFee    int64
	DeliveryFree   bool
	Discount       int64
	DiscountCapped bool
	Total          int64
	CouponCode     pgtype.Text
	WeatherImpact  bool
	WeatherNotice  pgtype.Text
	PaymentMethod  string
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

type OrderItem struct {
	ID        pgtype.UUID
	OrderID   pgtype.UUID
	ProductID pgtype.UUID
	Name      string
	Unit      string
	Qty       int32
	UnitPrice int64
	Subtotal  int64
}

type PaymentIntent struct {
	ID          pgtype.UUID
	OrderID     pgtype.UUID
	Provider    string
	Channel     string
	Status      string
	Amount      int64
	ProviderRef pgtype.Text
	ExpiresAt   pgtype.Timestamptz
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type Review struct {
	ID        pgtype.UUID
	ProductID pgtype.UUID
	UserID    pgtype.UUID
	Rating    int32
	Comment   pgtype.Text
	CreatedAt pgtype.Timestamptz
}

type Event struct {
	ID        pgtype.UUID
	Topic     string
	Payload   []byte
	CreatedAt pgtype.Timestamptz
}

// Driver is a delivery agent. Location columns are null until the first ping.
type Driver struct {
	ID        pgtype.UUID
	Name      string
	Phone     string
	VehicleNo pgtype.Text
	Status    string
	Lat       pgtype.Float8
	Lon       pgtype.Float8
	LocatedAt pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// AuditLog records an admin action against the catalogue, coupons or orders.
type AuditLog struct {
	ID         pgtype.UUID
	ActorID    pgtype.UUID
	ActorRole  pgtype.Text
	Action     string
	Resource   string
	ResourceID pgtype.Text
	Status     int32
	IP         pgtype.Text
	RequestID  pgtype.Text
	Metadata   []byte
	CreatedAt  pgtype.Timestamptz
}
