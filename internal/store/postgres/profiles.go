package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentorlink/mentorship-platform/internal/model"
	"github.com/mentorlink/mentorship-platform/internal/store"
)

type profileRepo struct {
	pool *pgxpool.Pool
}

func (r *profileRepo) Get(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	var avatar *string
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, full_name, avatar_url, role, created_at, updated_at
		FROM profiles
		WHERE id = $1::uuid
	`, id).Scan(&p.ID, &p.FullName, &avatar, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, &store.FetchError{Collection: "profiles", Err: err}
	}
	if avatar != nil {
		p.AvatarURL = *avatar
	}
	return &p, nil
}

func (r *profileRepo) Insert(ctx context.Context, p *model.Profile) error {
	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (id, full_name, avatar_url, role, created_at, updated_at)
		VALUES ($1::uuid, $2, NULLIF($3, ''), $4, $5, $6)
	`, p.ID, p.FullName, p.AvatarURL, p.Role, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return &store.WriteError{Collection: "profiles", Err: err}
	}
	return nil
}

func (r *profileRepo) Update(ctx context.Context, p *model.Profile) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET full_name = COALESCE(NULLIF($2, ''), full_name),
		    avatar_url = COALESCE(NULLIF($3, ''), avatar_url),
		    updated_at = $4
		WHERE id = $1::uuid
	`, p.ID, p.FullName, p.AvatarURL, time.Now().UTC())
	if err != nil {
		return &store.WriteError{Collection: "profiles", Err: err}
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *profileRepo) ListMentors(ctx context.Context) ([]model.Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, full_name, avatar_url, role, created_at, updated_at
		FROM profiles
		WHERE role = 'mentor'
		ORDER BY full_name ASC
	`)
	if err != nil {
		return nil, &store.FetchError{Collection: "profiles", Err: err}
	}
	defer rows.Close()

	var mentors []model.Profile
	for rows.Next() {
		var p model.Profile
		var avatar *string
		if err := rows.Scan(&p.ID, &p.FullName, &avatar, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, &store.FetchError{Collection: "profiles", Err: err}
		}
		if avatar != nil {
			p.AvatarURL = *avatar
		}
		mentors = append(mentors, p)
	}
	if rows.Err() != nil {
		return nil, &store.FetchError{Collection: "profiles", Err: rows.Err()}
	}
	return mentors, nil
}

type mentorRepo struct {
	pool *pgxpool.Pool
}

func (r *mentorRepo) Details(ctx context.Context, profileID string) (*model.MentorDetails, error) {
	var d model.MentorDetails
	var title, company *string
	err := r.pool.QueryRow(ctx, `
		SELECT profile_id::text, title, company
		FROM mentor_details
		WHERE profile_id = $1::uuid
	`, profileID).Scan(&d.ProfileID, &title, &company)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &store.FetchError{Collection: "mentor_details", Err: err}
	}
	if title != nil {
		d.Title = *title
	}
	if company != nil {
		d.Company = *company
	}
	return &d, nil
}

func (r *mentorRepo) Upsert(ctx context.Context, d *model.MentorDetails) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mentor_details (profile_id, title, company)
		VALUES ($1::uuid, NULLIF($2, ''), NULLIF($3, ''))
		ON CONFLICT (profile_id)
		DO UPDATE SET title = EXCLUDED.title, company = EXCLUDED.company
	`, d.ProfileID, d.Title, d.Company)
	if err != nil {
		return &store.WriteError{Collection: "mentor_details", Err: err}
	}
	return nil
}
