package domain

import "context"

// UserRepository abstracts user storage so the service logic stays the same
// whether users live in memory or in Postgres.
//
// FindByEmail and FindByID return (nil, nil) when no user matches.
// AdjustPoints applies delta atomically per user and never lets the balance
// go negative.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Insert(ctx context.Context, user *User) error
	AdjustPoints(ctx context.Context, id string, delta int) (int, error)
}
