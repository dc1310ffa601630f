// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON, one per write endpoint:

  - RegisterRequest, LoginRequest, CreateAddressRequest
  - CreateStoreRequest, CreateShippingMethodRequest, CreatePaymentMethodRequest
  - CreateLotRequest, UpdateLotPriceRequest, CreatePriceOverrideRequest
  - CartAddRequest, CartUpdateRequest
  - CheckoutPrepareRequest, CheckoutShippingRequest, CheckoutPaymentRequest
  - ShipOrderRequest, ShippingProofRequest, ApprovalDecisionRequest
  - AppealRequest, CreateIssueRequest, CreateBenchmarkRequest

# Response Types

  - CartResponse: stores with items and totals, grouped per seller
  - CheckoutPrepareResponse, DraftResponse, CheckoutSubmitResponse
  - OrderListResponse, OrderDetailResponse
  - PenaltyStatusResponse: current penalty and what the user may still do
  - ErrorResponse: error, message, plus code, data and actions for
    business rule refusals

# Domain Types

Rows as stored, with db tags for sqlx:

  - User, Address, AuditLog
  - CatalogItem, Color, PriceGuide, PriceOverrideRequest
  - Store, ShippingMethod, PaymentMethod, Lot
  - Cart, CartStore, CartItem
  - CheckoutDraft, Order, OrderItem, OrderStatusChange, OrderApproval
  - PenaltyConfig, UserIssue, UserPenalty
  - FairnessConfig, ShippingBenchmark, ShippingFlag
  - SLAMetrics, RatingMetrics, Badge, UserBadge

Money is shopspring/decimal throughout and is encoded as a JSON number.
Structured columns (snapshots, audit values) use JSON[T] or JSONMap, which
read and write JSON text.
*/
package models
