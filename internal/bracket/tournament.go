package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentStarted   TournamentStatus = "started"
	TournamentCompleted TournamentStatus = "completed"
)

// Tournament is one single-elimination bracket for a college. At most one
// tournament per college is started at any time.
type Tournament struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	CollegeID    uuid.UUID        `db:"college_id" json:"collegeId"`
	Name         string           `db:"name" json:"name"`
	Status       TournamentStatus `db:"status" json:"status"`
	Seeding      Seeding          `db:"seeding" json:"seeding"`
	WinningScore int              `db:"winning_score" json:"winningScore"`
	ChampionID   *uuid.UUID       `db:"champion_id" json:"championId"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
}
