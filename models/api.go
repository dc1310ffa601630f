package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request types

type RegisterRequest struct {
	Email               string  `json:"email"`
	Username            string  `json:"username"`
	Password            string  `json:"password"`
	FirstName           *string `json:"first_name"`
	LastName            *string `json:"last_name"`
	CountryCode         *string `json:"country_code"`
	PreferredCurrencyID *int64  `json:"preferred_currency_id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateAddressRequest struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	AddressLine1 string  `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         string  `json:"city"`
	State        *string `json:"state"`
	PostalCode   string  `json:"postal_code"`
	CountryCode  string  `json:"country_code"`
	Phone        string  `json:"phone"`
	IsDefault    bool    `json:"is_default"`
}

type CreateCatalogItemRequest struct {
	ItemNo       string              `json:"item_no"`
	ItemType     string              `json:"item_type"`
	ItemSeq      int                 `json:"item_seq"`
	Name         string              `json:"name"`
	CategoryID   *int64              `json:"category_id"`
	YearReleased *int                `json:"year_released"`
	WeightGrams  decimal.NullDecimal `json:"weight_grams"`
}

type CreateStoreRequest struct {
	Name                          string           `json:"name"`
	Slug                          string           `json:"slug"`
	CountryCode                   string           `json:"country_code"`
	CurrencyID                    *int64           `json:"currency_id"`
	RequireApprovalForRiskyBuyers bool             `json:"require_approval_for_risky_buyers"`
	RiskThresholdScore            *decimal.Decimal `json:"risk_threshold_score"`
}

type CreateShippingMethodRequest struct {
	Name               string              `json:"name"`
	Note               *string             `json:"note"`
	ShipsToCountries   []string            `json:"ships_to_countries"`
	CostType           *string             `json:"cost_type"`
	BaseCost           decimal.NullDecimal `json:"base_cost"`
	TrackingType       string              `json:"tracking_type"`
	InsuranceAvailable bool                `json:"insurance_available"`
	MinDays            *int                `json:"min_days"`
	MaxDays            *int                `json:"max_days"`
}

type CreatePaymentMethodRequest struct {
	MethodType string `json:"method_type"`
	Name       string `json:"name"`
	IsOnSite   bool   `json:"is_on_site"`
}

type CreateLotRequest struct {
	CatalogItemID  string          `json:"catalog_item_id"`
	ColorID        *int64          `json:"color_id"`
	Condition      string          `json:"condition"`
	Completeness   *string         `json:"completeness"`
	Quantity       int             `json:"quantity"`
	BulkQuantity   int             `json:"bulk_quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	SalePercentage int             `json:"sale_percentage"`
	Description    *string         `json:"description"`
}

type UpdateLotPriceRequest struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreatePriceOverrideRequest struct {
	CatalogItemID  string          `json:"catalog_item_id"`
	ColorID        int64           `json:"color_id"`
	Condition      string          `json:"condition"`
	RequestedPrice decimal.Decimal `json:"requested_price"`
	Justification  string          `json:"justification"`
}

// ReviewRequest carries a staff decision on a pending request.
type ReviewRequest struct {
	Decision string  `json:"decision"`
	Notes    *string `json:"notes"`
}

type CartAddRequest struct {
	LotID    string `json:"lot_id"`
	Quantity int    `json:"quantity"`
}

type CartUpdateRequest struct {
	Quantity int `json:"quantity"`
}

type CheckoutPrepareRequest struct {
	StoreID string `json:"store_id"`
}

type CheckoutShippingRequest struct {
	ShippingMethodID *string `json:"shipping_method_id"`
	AddressID        *string `json:"address_id"`
}

type CheckoutPaymentRequest struct {
	PaymentMethodID *string `json:"payment_method_id"`
}

type ShipOrderRequest struct {
	TrackingNumber *string    `json:"tracking_number"`
	ShippedAt      *time.Time `json:"shipped_at"`
}

type ShippingProofRequest struct {
	URL string `json:"url"`
}

type ApprovalDecisionRequest struct {
	Approve bool    `json:"approve"`
	Notes   *string `json:"notes"`
}

type AppealRequest struct {
	Text string `json:"text"`
}

type CreateIssueRequest struct {
	IssueType      string  `json:"issue_type"`
	Severity       int     `json:"severity"`
	RelatedOrderID *string `json:"related_order_id"`
	Description    *string `json:"description"`
}

type CreateBenchmarkRequest struct {
	OriginCountry      string          `json:"origin_country"`
	DestinationCountry string          `json:"destination_country"`
	WeightMinGrams     int             `json:"weight_min_grams"`
	WeightMaxGrams     int             `json:"weight_max_grams"`
	BenchmarkCost      decimal.Decimal `json:"benchmark_cost"`
	Carrier            *string         `json:"carrier"`
}

// Response types

type HealthResponse struct {
	Status string `json:"status"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
}

type MeResponse struct {
	User  User     `json:"user"`
	Roles []string `json:"roles"`
}

type CatalogListResponse struct {
	Items []CatalogItem `json:"items"`
}

type LotListResponse struct {
	Lots []Lot `json:"lots"`
}

type CartResponse struct {
	CartID     *string         `json:"cart_id"`
	ItemsTotal decimal.Decimal `json:"items_total"`
	Stores     []CartStoreView `json:"stores"`
}

type CartStoreView struct {
	StoreID          string           `json:"store_id"`
	StoreName        string           `json:"store_name"`
	StoreSlug        string           `json:"store_slug"`
	TotalItems       int              `json:"total_items"`
	TotalLots        int              `json:"total_lots"`
	Subtotal         decimal.Decimal  `json:"subtotal"`
	TotalWeightGrams int              `json:"total_weight_grams"`
	ShippingEstimate *decimal.Decimal `json:"shipping_estimate"`
	Items            []CartItem       `json:"items"`
}

type CartCountResponse struct {
	TotalItems int `json:"total_items"`
	TotalLots  int `json:"total_lots"`
}

// FairShippingQuote compares a shipping method's cost with the route
// benchmark.
type FairShippingQuote struct {
	Benchmark   decimal.Decimal `json:"benchmark"`
	MaxFair     decimal.Decimal `json:"max_fair"`
	WithinLimit bool            `json:"within_limit"`
}

type ShippingMethodView struct {
	ShippingMethod
	FairShipping *FairShippingQuote `json:"fair_shipping,omitempty"`
}

type CheckoutPrepareResponse struct {
	Draft           CheckoutDraft        `json:"draft"`
	ShippingMethods []ShippingMethodView `json:"shipping_methods"`
}

type ShippingMethodsResponse struct {
	ShippingMethods []ShippingMethodView `json:"shipping_methods"`
}

type DraftResponse struct {
	Draft CheckoutDraft `json:"draft"`
}

type CheckoutSubmitResponse struct {
	Draft            CheckoutDraft `json:"draft"`
	ApprovalRequired bool          `json:"approval_required"`
	Order            Order         `json:"order"`
	ShippingWarning  *string       `json:"shipping_warning,omitempty"`
}

type OrderSummary struct {
	ID          string          `db:"id" json:"id"`
	OrderNumber string          `db:"order_number" json:"order_number"`
	Status      string          `db:"status" json:"status"`
	ItemsTotal  decimal.Decimal `db:"items_total" json:"items_total"`
	GrandTotal  decimal.Decimal `db:"grand_total" json:"grand_total"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

type OrderListResponse struct {
	Orders []OrderSummary `json:"orders"`
}

type OrderDetailResponse struct {
	Order    Order               `json:"order"`
	Items    []OrderItem         `json:"items"`
	History  []OrderStatusChange `json:"history"`
	Approval *OrderApproval      `json:"approval,omitempty"`
}

type PenaltyStatusResponse struct {
	Penalty      *UserPenalty  `json:"penalty"`
	ActiveIssues int           `json:"active_issues"`
	CanBuy       bool          `json:"can_buy"`
	CanSell      bool          `json:"can_sell"`
	Message      string        `json:"message,omitempty"`
	Issues       []UserIssue   `json:"issues"`
	History      []UserPenalty `json:"history"`
}

type ShippingFlagListResponse struct {
	Flags []ShippingFlag `json:"flags"`
}

type RatingResponse struct {
	Metrics *RatingMetrics `json:"metrics"`
	Badges  []UserBadge    `json:"badges"`
}
