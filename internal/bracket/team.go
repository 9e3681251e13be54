package bracket

import (
	"time"

	"github.com/google/uuid"
)

type College struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Teams are registered against a college and only enter a tournament when a
// bracket is built for that college.
type Team struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CollegeID uuid.UUID `db:"college_id" json:"collegeId"`
	Name      string    `db:"name" json:"name"`
	// Registration order within the college, starting at 1
	Seed      int       `db:"seed" json:"seed"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
