// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rules implements the marketplace policies that sit on top of the
store package.

# Price Caps

Lot prices are capped at twice the six month average sale price of the same
item, color and condition. CalculatePriceGuides rebuilds the guides from
order history and ValidateLotPrice checks a price against them, honoring
approved override requests.

# Penalties

Issues recorded with RecordIssue decay after the configured number of
months. Once the active issue count crosses a threshold, a WARNING,
COOLDOWN, SUSPENSION or BAN is applied. Penalties only ever escalate
automatically; appeals can lift them.

# Shipping Fairness

EvaluateShippingCost compares a shipping charge with the route benchmark.
Charges above the alert threshold raise a WARNING flag, charges above the
auto-flag threshold raise a VIOLATION flag and count against the seller.

# Reputation

CalculateSLAMetrics scores how fast each store ships, CalculateUserRatings
turns order history into weighted 0-100 scores and AwardBadges grants
badges whose criteria a seller meets.

# Order Holds

Stores may hold orders from buyers rated below their risk threshold. Held
orders are approved or declined by the seller, or cancelled automatically
once ApprovalWindow passes. Untracked shipments must carry proof within
ShippingProofWindow or the order is disputed.
*/
package rules
