package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"chatsync/internal/core/domain"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const uniqueViolation = "23505"

func (r *ProfileRepo) CreateProfile(ctx context.Context, p *domain.UserProfile) error {
	if p.UID == "" {
		return domain.ErrInvalidUserID
	}
	exec := GetExecutor(ctx, r.db)
	err := exec.QueryRowContext(ctx, `
		INSERT INTO users (uid, display_name, email, photo_url)
		VALUES ($1, $2, $3, $4)
		RETURNING registered_at
	`, p.UID, p.DisplayName, p.Email, p.PhotoURL).Scan(&p.RegisteredAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrProfileExists
		}
		return err
	}
	return nil
}

func (r *ProfileRepo) EnsureProfile(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, error) {
	if p.UID == "" {
		return nil, domain.ErrInvalidUserID
	}
	exec := GetExecutor(ctx, r.db)
	// Insert or keep the existing record untouched
	err := exec.QueryRowContext(ctx, `
		INSERT INTO users (uid, display_name, email, photo_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uid) DO NOTHING
		RETURNING registered_at
	`, p.UID, p.DisplayName, p.Email, p.PhotoURL).Scan(&p.RegisteredAt)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, sql.ErrNoRows):
		// Already exists
		return r.GetProfile(ctx, p.UID)
	default:
		return nil, err
	}
}

func (r *ProfileRepo) GetProfile(ctx context.Context, uid string) (*domain.UserProfile, error) {
	if uid == "" {
		return nil, domain.ErrInvalidUserID
	}
	exec := GetExecutor(ctx, r.db)
	p := &domain.UserProfile{UID: uid}
	var lat, lng sql.NullFloat64
	err := exec.QueryRowContext(ctx, `
		SELECT display_name, email, photo_url, registered_at, last_lat, last_lng
		FROM users WHERE uid = $1
	`, uid).Scan(&p.DisplayName, &p.Email, &p.PhotoURL, &p.RegisteredAt, &lat, &lng)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	if lat.Valid && lng.Valid {
		p.LastLocation = &domain.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
	}
	return p, nil
}

func (r *ProfileRepo) ListProfiles(ctx context.Context) ([]domain.UserProfile, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT uid, display_name, email, photo_url, registered_at, last_lat, last_lng
		FROM users
		ORDER BY display_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var profiles []domain.UserProfile
	for rows.Next() {
		var p domain.UserProfile
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&p.UID, &p.DisplayName, &p.Email, &p.PhotoURL, &p.RegisteredAt, &lat, &lng); err != nil {
			return nil, err
		}
		if lat.Valid && lng.Valid {
			p.LastLocation = &domain.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *ProfileRepo) UpdateLocation(ctx context.Context, uid string, loc domain.GeoPoint) error {
	if uid == "" {
		return domain.ErrInvalidUserID
	}
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		UPDATE users SET last_lat = $2, last_lng = $3 WHERE uid = $1
	`, uid, loc.Lat, loc.Lng)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
