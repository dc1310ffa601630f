// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides credentials, access tokens, and identifier generation.

# Passwords

Passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword(password)
	err = auth.CheckPassword(hash, candidate) // ErrInvalidCredentials on mismatch

Passwords shorter than MinPasswordLength are rejected with ErrWeakPassword.

# Access Tokens

Access tokens are HS256 JWTs whose subject is the user ID:

	token, err := auth.IssueToken(userID, secret, time.Hour, time.Now())
	userID, err := auth.ParseToken(token, secret)

Expired, tampered, or foreign-algorithm tokens yield ErrInvalidToken.

# Identifiers

Database records use random UUIDs:

	id := auth.NewID()

Orders also carry a short display number (BK-<year>-<8 hex>):

	number := auth.NewOrderNumber(time.Now())

Store slugs are derived from the store name plus a base62 suffix:

	slug, err := auth.GenerateSlug("Brick Haven") // brick-haven-4kZ1

# IP Hashing

Audit records keep only a salted hash of the client address:

	hash := auth.HashIP(ipAddress, salt)
*/
package auth
