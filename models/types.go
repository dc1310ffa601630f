package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money goes over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Role names
const (
	RoleUser          = "user"
	RoleSeller        = "seller"
	RoleStaffSupport  = "staff_support"
	RoleStaffFinance  = "staff_finance"
	RoleStaffCatalog  = "staff_catalog"
	RoleAdmin         = "admin"
	UserStatusActive  = "ACTIVE"
	UserStatusBlocked = "BLOCKED"
)

// Store status constants
const (
	StoreActive    = "ACTIVE"
	StoreInactive  = "INACTIVE"
	StoreSuspended = "SUSPENDED"
)

// Lot constants
const (
	LotAvailable = "AVAILABLE"
	LotSoldOut   = "SOLD_OUT"
	LotInactive  = "INACTIVE"

	ConditionNew  = "N"
	ConditionUsed = "U"
)

// Checkout draft status constants
const (
	DraftOpen            = "DRAFT"
	DraftPendingShipping = "PENDING_SHIPPING"
	DraftPendingPayment  = "PENDING_PAYMENT"
	DraftCompleted       = "COMPLETED"
)

// Order status constants
const (
	OrderPending         = "PENDING"
	OrderPendingApproval = "PENDING_APPROVAL"
	OrderShipped         = "SHIPPED"
	OrderDelivered       = "DELIVERED"
	OrderCancelled       = "CANCELLED"
	OrderDisputed        = "DISPUTED"

	TrackingTracked = "TRACKED"
	TrackingNone    = "NO_TRACKING"

	PaymentStatusPending = "PENDING"
)

// Penalty types, ordered by severity
const (
	PenaltyWarning    = "WARNING"
	PenaltyCooldown   = "COOLDOWN"
	PenaltySuspension = "SUSPENSION"
	PenaltyBan        = "BAN"

	IssueShippingViolation = "SHIPPING_VIOLATION"
	IssueManual            = "MANUAL"
)

// Review workflow statuses shared by overrides, appeals and approvals
const (
	ReviewPending  = "PENDING"
	ReviewApproved = "APPROVED"
	ReviewRejected = "REJECTED"
	ReviewDeclined = "DECLINED"
	ReviewExpired  = "EXPIRED"
)

// Shipping fairness flag constants
const (
	FlagWarning   = "WARNING"
	FlagViolation = "VIOLATION"

	FlagOpen      = "OPEN"
	FlagReviewed  = "REVIEWED"
	FlagDismissed = "DISMISSED"
)

// Badge types
const (
	BadgeMonthly     = "MONTHLY"
	BadgeMilestone   = "MILESTONE"
	BadgeAchievement = "ACHIEVEMENT"

	RatingRoleSeller = "SELLER"
	RatingRoleBuyer  = "BUYER"
)

// Domain types

type User struct {
	ID                  string     `db:"id" json:"id"`
	Email               string     `db:"email" json:"email"`
	Username            string     `db:"username" json:"username"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	FirstName           *string    `db:"first_name" json:"first_name,omitempty"`
	LastName            *string    `db:"last_name" json:"last_name,omitempty"`
	CountryCode         *string    `db:"country_code" json:"country_code,omitempty"`
	PreferredCurrencyID *int64     `db:"preferred_currency_id" json:"preferred_currency_id,omitempty"`
	Status              string     `db:"status" json:"status"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

type AuditLog struct {
	ID         string        `db:"id" json:"id"`
	UserID     *string       `db:"user_id" json:"user_id,omitempty"`
	Action     string        `db:"action" json:"action"`
	EntityType string        `db:"entity_type" json:"entity_type"`
	EntityID   string        `db:"entity_id" json:"entity_id"`
	OldValues  JSON[JSONMap] `db:"old_values" json:"old_values"`
	NewValues  JSON[JSONMap] `db:"new_values" json:"new_values"`
	IPAddress  *string       `db:"ip_address" json:"ip_address,omitempty"`
	Reason     *string       `db:"reason" json:"reason,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

type Color struct {
	ID   int64   `db:"id" json:"id"`
	Name string  `db:"name" json:"name"`
	RGB  *string `db:"rgb" json:"rgb,omitempty"`
}

type CatalogItem struct {
	ID           string              `db:"id" json:"id"`
	ItemNo       string              `db:"item_no" json:"item_no"`
	ItemType     string              `db:"item_type" json:"item_type"`
	ItemSeq      int                 `db:"item_seq" json:"item_seq"`
	Name         string              `db:"name" json:"name"`
	CategoryID   *int64              `db:"category_id" json:"category_id,omitempty"`
	YearReleased *int                `db:"year_released" json:"year_released,omitempty"`
	WeightGrams  decimal.NullDecimal `db:"weight_grams" json:"weight_grams"`
	Status       string              `db:"status" json:"status"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
}

type PriceGuide struct {
	ID               string              `db:"id" json:"id"`
	CatalogItemID    string              `db:"catalog_item_id" json:"catalog_item_id"`
	ColorID          int64               `db:"color_id" json:"color_id"`
	Condition        string              `db:"condition" json:"condition"`
	AvgPrice6m       decimal.NullDecimal `db:"avg_price_6m" json:"avg_price_6m"`
	MinPrice6m       decimal.NullDecimal `db:"min_price_6m" json:"min_price_6m"`
	MaxPrice6m       decimal.NullDecimal `db:"max_price_6m" json:"max_price_6m"`
	SalesCount6m     int                 `db:"sales_count_6m" json:"sales_count_6m"`
	PriceCap         decimal.NullDecimal `db:"price_cap" json:"price_cap"`
	LastCalculatedAt *time.Time          `db:"last_calculated_at" json:"last_calculated_at,omitempty"`
}

type PriceOverrideRequest struct {
	ID             string              `db:"id" json:"id"`
	StoreID        string              `db:"store_id" json:"store_id"`
	CatalogItemID  string              `db:"catalog_item_id" json:"catalog_item_id"`
	ColorID        int64               `db:"color_id" json:"color_id"`
	Condition      string              `db:"condition" json:"condition"`
	RequestedPrice decimal.Decimal     `db:"requested_price" json:"requested_price"`
	PriceCap       decimal.NullDecimal `db:"price_cap" json:"price_cap"`
	Justification  string              `db:"justification" json:"justification"`
	Status         string              `db:"status" json:"status"`
	ReviewedBy     *string             `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time          `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNotes    *string             `db:"review_notes" json:"review_notes,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
}

type Store struct {
	ID                            string              `db:"id" json:"id"`
	UserID                        string              `db:"user_id" json:"user_id"`
	Name                          string              `db:"name" json:"name"`
	Slug                          string              `db:"slug" json:"slug"`
	CountryCode                   string              `db:"country_code" json:"country_code"`
	CurrencyID                    *int64              `db:"currency_id" json:"currency_id,omitempty"`
	FeedbackScore                 int                 `db:"feedback_score" json:"feedback_score"`
	Status                        string              `db:"status" json:"status"`
	MinBuyAmount                  decimal.NullDecimal `db:"min_buy_amount" json:"min_buy_amount"`
	InstantCheckoutEnabled        bool                `db:"instant_checkout_enabled" json:"instant_checkout_enabled"`
	RequireApprovalForRiskyBuyers bool                `db:"require_approval_for_risky_buyers" json:"require_approval_for_risky_buyers"`
	RiskThresholdScore            decimal.Decimal     `db:"risk_threshold_score" json:"risk_threshold_score"`
	CreatedAt                     time.Time           `db:"created_at" json:"created_at"`
}

type ShippingMethod struct {
	ID                 string              `db:"id" json:"id"`
	StoreID            string              `db:"store_id" json:"store_id"`
	Name               string              `db:"name" json:"name"`
	Note               *string             `db:"note" json:"note"`
	ShipsToCountries   JSON[[]string]      `db:"ships_to_countries" json:"ships_to_countries"`
	CostType           *string             `db:"cost_type" json:"cost_type"`
	BaseCost           decimal.NullDecimal `db:"base_cost" json:"base_cost"`
	TrackingType       string              `db:"tracking_type" json:"tracking_type"`
	InsuranceAvailable bool                `db:"insurance_available" json:"insurance_available"`
	MinDays            *int                `db:"min_days" json:"min_days"`
	MaxDays            *int                `db:"max_days" json:"max_days"`
	IsActive           *bool               `db:"is_active" json:"is_active"`
}

type PaymentMethod struct {
	ID         string `db:"id" json:"id"`
	StoreID    string `db:"store_id" json:"store_id"`
	MethodType string `db:"method_type" json:"method_type"`
	Name       string `db:"name" json:"name"`
	IsOnSite   bool   `db:"is_on_site" json:"is_on_site"`
	IsActive   *bool  `db:"is_active" json:"is_active"`
}

type Lot struct {
	ID                     string          `db:"id" json:"id"`
	StoreID                string          `db:"store_id" json:"store_id"`
	CatalogItemID          string          `db:"catalog_item_id" json:"catalog_item_id"`
	ColorID                *int64          `db:"color_id" json:"color_id"`
	Condition              string          `db:"condition" json:"condition"`
	Completeness           *string         `db:"completeness" json:"completeness,omitempty"`
	Quantity               int             `db:"quantity" json:"quantity"`
	BulkQuantity           int             `db:"bulk_quantity" json:"bulk_quantity"`
	UnitPrice              decimal.Decimal `db:"unit_price" json:"unit_price"`
	SalePercentage         int             `db:"sale_percentage" json:"sale_percentage"`
	Description            *string         `db:"description" json:"description,omitempty"`
	Status                 string          `db:"status" json:"status"`
	PriceOverrideRequestID *string         `db:"price_override_request_id" json:"price_override_request_id,omitempty"`
	CreatedAt              time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at" json:"updated_at"`
}

type Cart struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type CartStore struct {
	ID               string          `db:"id"`
	CartID           string          `db:"cart_id"`
	StoreID          string          `db:"store_id"`
	TotalItems       int             `db:"total_items"`
	TotalLots        int             `db:"total_lots"`
	Subtotal         decimal.Decimal `db:"subtotal"`
	TotalWeightGrams int             `db:"total_weight_grams"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

type CartItem struct {
	ID                string              `db:"id" json:"id"`
	CartStoreID       string              `db:"cart_store_id" json:"-"`
	LotID             string              `db:"lot_id" json:"lot_id"`
	Quantity          int                 `db:"quantity" json:"quantity"`
	UnitPriceSnapshot decimal.Decimal     `db:"unit_price_snapshot" json:"unit_price_snapshot"`
	SalePriceSnapshot decimal.NullDecimal `db:"sale_price_snapshot" json:"sale_price_snapshot"`
	Warnings          JSON[[]string]      `db:"warnings" json:"warnings"`
	AddedAt           time.Time           `db:"added_at" json:"-"`
}

// EffectivePrice is the sale price when one was captured, else the unit price.
func (c CartItem) EffectivePrice() decimal.Decimal {
	if c.SalePriceSnapshot.Valid {
		return c.SalePriceSnapshot.Decimal
	}
	return c.UnitPriceSnapshot
}

type Address struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	AddressLine1 string    `db:"address_line1" json:"address_line1"`
	AddressLine2 *string   `db:"address_line2" json:"address_line2,omitempty"`
	City         string    `db:"city" json:"city"`
	State        *string   `db:"state" json:"state,omitempty"`
	PostalCode   string    `db:"postal_code" json:"postal_code"`
	CountryCode  string    `db:"country_code" json:"country_code"`
	Phone        string    `db:"phone" json:"phone"`
	IsDefault    bool      `db:"is_default" json:"is_default"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type CheckoutDraft struct {
	ID                string              `db:"id" json:"id"`
	CartStoreID       string              `db:"cart_store_id" json:"cart_store_id"`
	UserID            string              `db:"user_id" json:"user_id"`
	StoreID           string              `db:"store_id" json:"store_id"`
	Status            string              `db:"status" json:"status"`
	ShippingAddressID *string             `db:"shipping_address_id" json:"shipping_address_id"`
	ShippingMethodID  *string             `db:"shipping_method_id" json:"shipping_method_id"`
	ShippingCost      decimal.NullDecimal `db:"shipping_cost" json:"shipping_cost"`
	InsuranceCost     decimal.Decimal     `db:"insurance_cost" json:"insurance_cost"`
	TrackingFee       decimal.Decimal     `db:"tracking_fee" json:"tracking_fee"`
	PaymentMethodID   *string             `db:"payment_method_id" json:"payment_method_id"`
	PaymentCurrencyID *int64              `db:"payment_currency_id" json:"payment_currency_id"`
	ItemsTotal        decimal.Decimal     `db:"items_total" json:"items_total"`
	ShippingTotal     decimal.Decimal     `db:"shipping_total" json:"shipping_total"`
	TaxTotal          decimal.Decimal     `db:"tax_total" json:"tax_total"`
	GrandTotal        decimal.Decimal     `db:"grand_total" json:"grand_total"`
	QuoteSnapshot     JSON[QuoteSnapshot] `db:"quote_snapshot" json:"quote_snapshot"`
	PaymentProvider   *string             `db:"payment_provider" json:"payment_provider"`
	OrderID           *string             `db:"order_id" json:"order_id"`
	CreatedAt         time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at" json:"updated_at"`
	ExpiresAt         *time.Time          `db:"expires_at" json:"expires_at"`
}

type QuoteSnapshot struct {
	StoreID string      `json:"store_id"`
	Items   []QuoteItem `json:"items"`
}

type QuoteItem struct {
	LotID             string              `json:"lot_id"`
	Quantity          int                 `json:"quantity"`
	UnitPriceSnapshot decimal.Decimal     `json:"unit_price_snapshot"`
	SalePriceSnapshot decimal.NullDecimal `json:"sale_price_snapshot"`
}

type Order struct {
	ID                      string          `db:"id" json:"id"`
	OrderNumber             string          `db:"order_number" json:"order_number"`
	BuyerID                 string          `db:"buyer_id" json:"buyer_id"`
	StoreID                 string          `db:"store_id" json:"store_id"`
	Status                  string          `db:"status" json:"status"`
	ItemsTotal              decimal.Decimal `db:"items_total" json:"items_total"`
	ShippingCost            decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	InsuranceCost           decimal.Decimal `db:"insurance_cost" json:"insurance_cost"`
	TaxTotal                decimal.Decimal `db:"tax_total" json:"tax_total"`
	GrandTotal              decimal.Decimal `db:"grand_total" json:"grand_total"`
	StoreCurrencyID         *int64          `db:"store_currency_id" json:"store_currency_id,omitempty"`
	ShippingMethodID        *string         `db:"shipping_method_id" json:"shipping_method_id,omitempty"`
	ShippingAddressSnapshot JSON[Address]   `db:"shipping_address_snapshot" json:"shipping_address"`
	TrackingType            *string         `db:"tracking_type" json:"tracking_type,omitempty"`
	PaymentMethodID         *string         `db:"payment_method_id" json:"payment_method_id,omitempty"`
	PaymentStatus           *string         `db:"payment_status" json:"payment_status,omitempty"`
	TrackingNumber          *string         `db:"tracking_number" json:"tracking_number,omitempty"`
	ShippedAt               *time.Time      `db:"shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt             *time.Time      `db:"delivered_at" json:"delivered_at,omitempty"`
	ShippingProofURL        *string         `db:"shipping_proof_url" json:"shipping_proof_url,omitempty"`
	ShippingProofUploadedAt *time.Time      `db:"shipping_proof_uploaded_at" json:"shipping_proof_uploaded_at,omitempty"`
	ShippingProofDeadline   *time.Time      `db:"shipping_proof_deadline" json:"shipping_proof_deadline,omitempty"`
	BuyerNotes              *string         `db:"buyer_notes" json:"buyer_notes,omitempty"`
	CreatedAt               time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time       `db:"updated_at" json:"updated_at"`
}

type OrderItem struct {
	ID           string              `db:"id" json:"id"`
	OrderID      string              `db:"order_id" json:"-"`
	LotID        string              `db:"lot_id" json:"lot_id"`
	ItemSnapshot JSON[ItemSnapshot]  `db:"item_snapshot" json:"item_snapshot"`
	Quantity     int                 `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal     `db:"unit_price" json:"unit_price"`
	SalePrice    decimal.NullDecimal `db:"sale_price" json:"sale_price"`
	LineTotal    decimal.Decimal     `db:"line_total" json:"line_total"`
}

type ItemSnapshot struct {
	CatalogItemID string `json:"catalog_item_id"`
	ItemNo        string `json:"item_no"`
	Name          string `json:"name"`
	ColorID       *int64 `json:"color_id,omitempty"`
	Condition     string `json:"condition"`
}

type OrderStatusChange struct {
	ID        string    `db:"id" json:"id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	OldStatus string    `db:"old_status" json:"old_status"`
	NewStatus string    `db:"new_status" json:"new_status"`
	ChangedBy *string   `db:"changed_by" json:"changed_by,omitempty"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type OrderApproval struct {
	ID             string              `db:"id" json:"id"`
	OrderID        string              `db:"order_id" json:"order_id"`
	Reason         *string             `db:"reason" json:"reason,omitempty"`
	BuyerRiskScore decimal.NullDecimal `db:"buyer_risk_score" json:"buyer_risk_score"`
	Status         string              `db:"status" json:"status"`
	DecidedBy      *string             `db:"decided_by" json:"decided_by,omitempty"`
	DecisionNotes  *string             `db:"decision_notes" json:"decision_notes,omitempty"`
	DecidedAt      *time.Time          `db:"decided_at" json:"decided_at,omitempty"`
	AutoCancelAt   *time.Time          `db:"auto_cancel_at" json:"auto_cancel_at,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
}

type PenaltyConfig struct {
	ID                     int       `db:"id"`
	WarningThreshold       int       `db:"warning_threshold"`
	CooldownThreshold      int       `db:"cooldown_threshold"`
	SuspensionThreshold    int       `db:"suspension_threshold"`
	BanThreshold           int       `db:"ban_threshold"`
	EvaluationPeriodMonths int       `db:"evaluation_period_months"`
	IssueDecayMonths       int       `db:"issue_decay_months"`
	UpdatedAt              time.Time `db:"updated_at"`
}

type UserIssue struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	IssueType      string    `db:"issue_type" json:"issue_type"`
	Severity       int       `db:"severity" json:"severity"`
	RelatedOrderID *string   `db:"related_order_id" json:"related_order_id,omitempty"`
	Description    *string   `db:"description" json:"description,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	ExpiresAt      time.Time `db:"expires_at" json:"expires_at"`
}

// Restrictions is the set of capabilities a penalty removes. A nil pointer
// means the capability is not restricted.
type Restrictions struct {
	CanSell     *bool `json:"can_sell,omitempty"`
	CanBuy      *bool `json:"can_buy,omitempty"`
	APIDisabled bool  `json:"api_disabled,omitempty"`
}

type UserPenalty struct {
	ID               string             `db:"id" json:"id"`
	UserID           string             `db:"user_id" json:"user_id"`
	PenaltyType      string             `db:"penalty_type" json:"penalty_type"`
	ReasonCode       string             `db:"reason_code" json:"reason_code"`
	Description      *string            `db:"description" json:"description,omitempty"`
	StartsAt         time.Time          `db:"starts_at" json:"starts_at"`
	EndsAt           *time.Time         `db:"ends_at" json:"ends_at"`
	Restrictions     JSON[Restrictions] `db:"restrictions" json:"restrictions"`
	AppealStatus     *string            `db:"appeal_status" json:"appeal_status,omitempty"`
	AppealText       *string            `db:"appeal_text" json:"appeal_text,omitempty"`
	AppealReviewedBy *string            `db:"appeal_reviewed_by" json:"-"`
	AppealReviewedAt *time.Time         `db:"appeal_reviewed_at" json:"appeal_reviewed_at,omitempty"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
}

type FairnessConfig struct {
	ID                          int             `db:"id"`
	MaxMarkupPercentage         decimal.Decimal `db:"max_markup_percentage"`
	AlertThresholdPercentage    decimal.Decimal `db:"alert_threshold_percentage"`
	AutoFlagThresholdPercentage decimal.Decimal `db:"auto_flag_threshold_percentage"`
	UpdatedAt                   time.Time       `db:"updated_at"`
}

type ShippingBenchmark struct {
	ID                 string          `db:"id" json:"id"`
	OriginCountry      string          `db:"origin_country" json:"origin_country"`
	DestinationCountry string          `db:"destination_country" json:"destination_country"`
	WeightMinGrams     int             `db:"weight_min_grams" json:"weight_min_grams"`
	WeightMaxGrams     int             `db:"weight_max_grams" json:"weight_max_grams"`
	BenchmarkCost      decimal.Decimal `db:"benchmark_cost" json:"benchmark_cost"`
	Carrier            *string         `db:"carrier" json:"carrier,omitempty"`
	LastUpdated        *time.Time      `db:"last_updated" json:"last_updated,omitempty"`
}

type ShippingFlag struct {
	ID               string          `db:"id" json:"id"`
	StoreID          string          `db:"store_id" json:"store_id"`
	OrderID          *string         `db:"order_id" json:"order_id,omitempty"`
	FlagType         string          `db:"flag_type" json:"flag_type"`
	ChargedAmount    decimal.Decimal `db:"charged_amount" json:"charged_amount"`
	BenchmarkAmount  decimal.Decimal `db:"benchmark_amount" json:"benchmark_amount"`
	MarkupPercentage decimal.Decimal `db:"markup_percentage" json:"markup_percentage"`
	Status           string          `db:"status" json:"status"`
	ReviewedBy       *string         `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time      `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

type SLAMetrics struct {
	ID               string          `db:"id" json:"id"`
	StoreID          string          `db:"store_id" json:"store_id"`
	PeriodStart      time.Time       `db:"period_start" json:"period_start"`
	PeriodEnd        time.Time       `db:"period_end" json:"period_end"`
	Shipped24h       int             `db:"orders_shipped_24h" json:"orders_shipped_24h"`
	Shipped48h       int             `db:"orders_shipped_48h" json:"orders_shipped_48h"`
	Shipped72h       int             `db:"orders_shipped_72h" json:"orders_shipped_72h"`
	ShippedLate      int             `db:"orders_shipped_late" json:"orders_shipped_late"`
	AvgShippingHours decimal.Decimal `db:"avg_shipping_hours" json:"avg_shipping_hours"`
	ShippingSLAScore decimal.Decimal `db:"shipping_sla_score" json:"shipping_sla_score"`
	MessageSLAScore  decimal.Decimal `db:"message_sla_score" json:"message_sla_score"`
	CalculatedAt     time.Time       `db:"calculated_at" json:"calculated_at"`
}

type RatingMetrics struct {
	ID           string             `db:"id" json:"id"`
	UserID       string             `db:"user_id" json:"user_id"`
	Role         string             `db:"role" json:"role"`
	OverallScore decimal.Decimal    `db:"overall_score" json:"overall_score"`
	ScoreTier    string             `db:"score_tier" json:"score_tier"`
	FactorScores JSON[RatingInputs] `db:"factor_scores" json:"factor_scores"`
	OrdersCount  int                `db:"orders_count" json:"orders_count"`
	CalculatedAt time.Time          `db:"calculated_at" json:"calculated_at"`
}

// RatingInputs are the 0-100 component scores of a reputation score.
type RatingInputs struct {
	ShipmentsSLA  decimal.Decimal `json:"shipments_sla_score"`
	ResponseSLA   decimal.Decimal `json:"response_sla_score"`
	Dispute       decimal.Decimal `json:"dispute_score"`
	Cancellation  decimal.Decimal `json:"cancellation_score"`
	PriceFairness decimal.Decimal `json:"price_fairness_score"`
	Activity      decimal.Decimal `json:"activity_score"`
}

type Badge struct {
	Code        string                   `db:"code" json:"code"`
	Name        string                   `db:"name" json:"name"`
	Description *string                  `db:"description" json:"description,omitempty"`
	BadgeType   string                   `db:"badge_type" json:"badge_type"`
	Criteria    JSON[map[string]float64] `db:"criteria" json:"criteria"`
}

type UserBadge struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id"`
	BadgeCode  string     `db:"badge_code" json:"badge_code"`
	AwardedAt  time.Time  `db:"awarded_at" json:"awarded_at"`
	ValidUntil *time.Time `db:"valid_until" json:"valid_until,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Code    string         `json:"code,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Actions []string       `json:"actions,omitempty"`
}
