// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/models"
)

func GetCartByUser(ctx context.Context, q Queryer, userID string) (*models.Cart, error) {
	var c models.Cart
	if err := get(ctx, q, &c, `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?`, userID); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateCart returns the user's cart, creating an empty one on first use.
func GetOrCreateCart(ctx context.Context, q Queryer, userID string, now time.Time) (*models.Cart, error) {
	c, err := GetCartByUser(ctx, q, userID)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return c, err
	}
	c = &models.Cart{ID: auth.NewID(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	err = namedExec(ctx, q, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES (:id, :user_id, :created_at, :updated_at)
	`, c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

const cartStoreColumns = `id, cart_id, store_id, total_items, total_lots, subtotal, total_weight_grams, updated_at`

func GetCartStore(ctx context.Context, q Queryer, cartID, storeID string) (*models.CartStore, error) {
	var cs models.CartStore
	err := get(ctx, q, &cs, `SELECT `+cartStoreColumns+` FROM cart_stores WHERE cart_id = ? AND store_id = ?`, cartID, storeID)
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

func GetCartStoreByID(ctx context.Context, q Queryer, id string) (*models.CartStore, error) {
	var cs models.CartStore
	if err := get(ctx, q, &cs, `SELECT `+cartStoreColumns+` FROM cart_stores WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &cs, nil
}

func GetOrCreateCartStore(ctx context.Context, q Queryer, cartID, storeID string, now time.Time) (*models.CartStore, error) {
	cs, err := GetCartStore(ctx, q, cartID, storeID)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return cs, err
	}
	cs = &models.CartStore{ID: auth.NewID(), CartID: cartID, StoreID: storeID, UpdatedAt: now}
	err = namedExec(ctx, q, `
		INSERT INTO cart_stores (`+cartStoreColumns+`)
		VALUES (:id, :cart_id, :store_id, :total_items, :total_lots, :subtotal, :total_weight_grams, :updated_at)
	`, cs)
	if err != nil {
		return nil, err
	}
	return cs, nil
}

func ListCartStores(ctx context.Context, q Queryer, cartID string) ([]models.CartStore, error) {
	stores := []models.CartStore{}
	err := selectAll(ctx, q, &stores, `
		SELECT `+cartStoreColumns+` FROM cart_stores WHERE cart_id = ? ORDER BY updated_at
	`, cartID)
	return stores, err
}

func UpdateCartStoreTotals(ctx context.Context, q Queryer, cs *models.CartStore) error {
	return execAffected(ctx, q, `
		UPDATE cart_stores
		SET total_items = ?, total_lots = ?, subtotal = ?, total_weight_grams = ?, updated_at = ?
		WHERE id = ?
	`, cs.TotalItems, cs.TotalLots, cs.Subtotal, cs.TotalWeightGrams, cs.UpdatedAt, cs.ID)
}

const cartItemColumns = `id, cart_store_id, lot_id, quantity, unit_price_snapshot, sale_price_snapshot, warnings, added_at`

func ListCartItems(ctx context.Context, q Queryer, cartStoreID string) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := selectAll(ctx, q, &items, `
		SELECT `+cartItemColumns+` FROM cart_items WHERE cart_store_id = ? ORDER BY added_at, id
	`, cartStoreID)
	return items, err
}

func GetCartItemByLot(ctx context.Context, q Queryer, cartStoreID, lotID string) (*models.CartItem, error) {
	var item models.CartItem
	err := get(ctx, q, &item, `SELECT `+cartItemColumns+` FROM cart_items WHERE cart_store_id = ? AND lot_id = ?`, cartStoreID, lotID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetUserCartItem loads a cart item only if it sits in the given user's cart.
func GetUserCartItem(ctx context.Context, q Queryer, userID, itemID string) (*models.CartItem, error) {
	var item models.CartItem
	err := get(ctx, q, &item, `
		SELECT ci.id, ci.cart_store_id, ci.lot_id, ci.quantity, ci.unit_price_snapshot, ci.sale_price_snapshot,
			ci.warnings, ci.added_at
		FROM cart_items ci
		JOIN cart_stores cs ON cs.id = ci.cart_store_id
		JOIN carts c ON c.id = cs.cart_id
		WHERE ci.id = ? AND c.user_id = ?
	`, itemID, userID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func CreateCartItem(ctx context.Context, q Queryer, item *models.CartItem) error {
	return namedExec(ctx, q, `
		INSERT INTO cart_items (`+cartItemColumns+`)
		VALUES (:id, :cart_store_id, :lot_id, :quantity, :unit_price_snapshot, :sale_price_snapshot, :warnings, :added_at)
	`, item)
}

func UpdateCartItemQuantity(ctx context.Context, q Queryer, id string, quantity int) error {
	return execAffected(ctx, q, `UPDATE cart_items SET quantity = ? WHERE id = ?`, quantity, id)
}

func DeleteCartItem(ctx context.Context, q Queryer, id string) error {
	return execAffected(ctx, q, `DELETE FROM cart_items WHERE id = ?`, id)
}

// ClearCartStore removes every item of a cart store and zeroes its totals.
func ClearCartStore(ctx context.Context, q Queryer, cartStoreID string, now time.Time) error {
	if _, err := exec(ctx, q, `DELETE FROM cart_items WHERE cart_store_id = ?`, cartStoreID); err != nil {
		return err
	}
	_, err := exec(ctx, q, `
		UPDATE cart_stores
		SET total_items = 0, total_lots = 0, subtotal = 0, total_weight_grams = 0, updated_at = ?
		WHERE id = ?
	`, now, cartStoreID)
	return err
}

func DeleteCartStore(ctx context.Context, q Queryer, id string) error {
	return execAffected(ctx, q, `DELETE FROM cart_stores WHERE id = ?`, id)
}
