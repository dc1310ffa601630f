// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"time"

	"github.com/danielhkuo/brikick/models"
)

const userColumns = `id, email, username, password_hash, first_name, last_name, country_code,
	preferred_currency_id, status, created_at, updated_at, last_login_at`

func CreateUser(ctx context.Context, q Queryer, u *models.User) error {
	return namedExec(ctx, q, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :username, :password_hash, :first_name, :last_name, :country_code,
			:preferred_currency_id, :status, :created_at, :updated_at, :last_login_at)
	`, u)
}

func GetUser(ctx context.Context, q Queryer, id string) (*models.User, error) {
	var u models.User
	if err := get(ctx, q, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByEmail(ctx context.Context, q Queryer, email string) (*models.User, error) {
	var u models.User
	if err := get(ctx, q, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, email); err != nil {
		return nil, err
	}
	return &u, nil
}

func TouchLastLogin(ctx context.Context, q Queryer, id string, now time.Time) error {
	return execAffected(ctx, q, `UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
}

// GrantRole adds role to the user; granting a role twice is a no-op.
func GrantRole(ctx context.Context, q Queryer, userID, role string, grantedBy *string, now time.Time) error {
	_, err := exec(ctx, q, `
		INSERT INTO user_roles (user_id, role_name, granted_at, granted_by)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, role_name) DO NOTHING
	`, userID, role, now, grantedBy)
	return err
}

func UserRoles(ctx context.Context, q Queryer, userID string) ([]string, error) {
	roles := []string{}
	err := selectAll(ctx, q, &roles, `SELECT role_name FROM user_roles WHERE user_id = ? ORDER BY role_name`, userID)
	return roles, err
}

// HasAnyRole reports whether the user holds at least one of roles.
func HasAnyRole(ctx context.Context, q Queryer, userID string, roles ...string) (bool, error) {
	held, err := UserRoles(ctx, q, userID)
	if err != nil {
		return false, err
	}
	for _, h := range held {
		for _, r := range roles {
			if h == r {
				return true, nil
			}
		}
	}
	return false, nil
}

func WriteAudit(ctx context.Context, q Queryer, entry *models.AuditLog) error {
	return namedExec(ctx, q, `
		INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, old_values, new_values, ip_address, reason, created_at)
		VALUES (:id, :user_id, :action, :entity_type, :entity_id, :old_values, :new_values, :ip_address, :reason, :created_at)
	`, entry)
}

func ListAudit(ctx context.Context, q Queryer, entityType, entityID string) ([]models.AuditLog, error) {
	entries := []models.AuditLog{}
	err := selectAll(ctx, q, &entries, `
		SELECT id, user_id, action, entity_type, entity_id, old_values, new_values, ip_address, reason, created_at
		FROM audit_logs
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY created_at
	`, entityType, entityID)
	return entries, err
}

func CreateAddress(ctx context.Context, q Queryer, a *models.Address) error {
	return namedExec(ctx, q, `
		INSERT INTO user_addresses (id, user_id, first_name, last_name, address_line1, address_line2, city, state,
			postal_code, country_code, phone, is_default, created_at)
		VALUES (:id, :user_id, :first_name, :last_name, :address_line1, :address_line2, :city, :state,
			:postal_code, :country_code, :phone, :is_default, :created_at)
	`, a)
}

const addressColumns = `id, user_id, first_name, last_name, address_line1, address_line2, city, state,
	postal_code, country_code, phone, is_default, created_at`

func GetAddress(ctx context.Context, q Queryer, id string) (*models.Address, error) {
	var a models.Address
	if err := get(ctx, q, &a, `SELECT `+addressColumns+` FROM user_addresses WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func ListAddresses(ctx context.Context, q Queryer, userID string) ([]models.Address, error) {
	addrs := []models.Address{}
	err := selectAll(ctx, q, &addrs, `
		SELECT `+addressColumns+` FROM user_addresses
		WHERE user_id = ?
		ORDER BY is_default DESC, created_at
	`, userID)
	return addrs, err
}
