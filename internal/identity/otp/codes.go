package otp

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type codeResult int

const (
	codeOK codeResult = iota
	codeMissing
	codeExpired
	codeExhausted
	codeWrong
)

func generateCode(n int) (string, error) {
	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generating code: %w", err)
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}

func (s *Service) storeCode(ctx context.Context, email, code string, now time.Time) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing code: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO otp_codes (email, code_hash, expires_at) VALUES (?, ?, ?)`,
		email, string(hash), now.Add(s.cfg.CodeTTL).UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storing code: %w", err)
	}
	return nil
}

// checkCode tests code against the newest code issued for email. A wrong
// guess burns one attempt; a match marks the code used.
func (s *Service) checkCode(ctx context.Context, email, code string, now time.Time) (codeResult, error) {
	var (
		id        int64
		hash      string
		expiresAt string
		usedAt    sql.NullString
		attempts  int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code_hash, expires_at, used_at, attempts
		FROM otp_codes
		WHERE email = ?
		ORDER BY id DESC
		LIMIT 1`, email,
	).Scan(&id, &hash, &expiresAt, &usedAt, &attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return codeMissing, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading code: %w", err)
	}

	expires, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil {
		return 0, fmt.Errorf("parsing expiry: %w", err)
	}
	if usedAt.Valid || !now.Before(expires) {
		return codeExpired, nil
	}
	if attempts >= s.cfg.MaxAttempts {
		return codeExhausted, nil
	}

	// The attempts check above is only a shortcut. Concurrent guesses all
	// read the same count, so the limit is enforced again in each UPDATE.
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		res, err := s.db.ExecContext(ctx,
			`UPDATE otp_codes SET attempts = attempts + 1 WHERE id = ? AND attempts < ?`,
			id, s.cfg.MaxAttempts,
		)
		if err != nil {
			return 0, fmt.Errorf("counting attempt: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return 0, fmt.Errorf("counting attempt: %w", err)
		} else if n == 0 {
			return codeExhausted, nil
		}
		return codeWrong, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE otp_codes SET used_at = ? WHERE id = ? AND used_at IS NULL AND attempts < ?`,
		now.UTC().Format(time.RFC3339Nano), id, s.cfg.MaxAttempts,
	)
	if err != nil {
		return 0, fmt.Errorf("consuming code: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.consumeLost(ctx, id)
	}
	return codeOK, nil
}

// consumeLost tells why a matching code could not be marked used: a
// concurrent verify either consumed it or burned its last attempt.
func (s *Service) consumeLost(ctx context.Context, id int64) (codeResult, error) {
	var attempts int
	if err := s.db.QueryRowContext(ctx,
		`SELECT attempts FROM otp_codes WHERE id = ?`, id,
	).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("reading attempts: %w", err)
	}
	if attempts >= s.cfg.MaxAttempts {
		return codeExhausted, nil
	}
	return codeExpired, nil
}
