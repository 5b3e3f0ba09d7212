package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/samuelsuu/subuzz/internal/models"
)

// PushStore abstracts push subscription persistence.
type PushStore interface {
	ListSubscriptions(ctx context.Context, userID string) ([]models.PushSubscription, error)
	UpsertSubscription(ctx context.Context, sub models.PushSubscription) error
	RemoveSubscription(ctx context.Context, endpoint string) error
}

// PushRepo is a sqlx implementation of PushStore.
type PushRepo struct {
	db *sqlx.DB
}

// NewPushRepo constructs a PushRepo.
func NewPushRepo(db *sqlx.DB) *PushRepo {
	return &PushRepo{db: db}
}

// ListSubscriptions returns all registered endpoints for a user.
func (r *PushRepo) ListSubscriptions(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := r.db.SelectContext(ctx, &subs,
		`SELECT user_id, endpoint, keys_p256dh, keys_auth, created_at FROM push_subscriptions WHERE user_id=$1`, userID)
	return subs, err
}

// UpsertSubscription registers or refreshes an endpoint for a user.
func (r *PushRepo) UpsertSubscription(ctx context.Context, sub models.PushSubscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (user_id, endpoint, keys_p256dh, keys_auth) VALUES ($1, $2, $3, $4)
         ON CONFLICT (user_id, endpoint) DO UPDATE SET keys_p256dh = EXCLUDED.keys_p256dh, keys_auth = EXCLUDED.keys_auth`,
		sub.UserID, sub.Endpoint, sub.KeysP256dh, sub.KeysAuth)
	return err
}

// RemoveSubscription drops an endpoint confirmed gone by the push service.
func (r *PushRepo) RemoveSubscription(ctx context.Context, endpoint string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint=$1`, endpoint)
	return err
}
