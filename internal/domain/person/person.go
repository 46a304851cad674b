package person

import (
	"context"
	"time"
)

// Person is a named face that media can be attributed to.
type Person struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	MediaIDs  []string  `json:"mediaIds"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	Save(ctx context.Context, p *Person) error
	FindByID(ctx context.Context, id int64) (*Person, error)
	List(ctx context.Context) ([]*Person, error)
}
