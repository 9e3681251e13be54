package bracket

import (
	"fmt"
	"math"
)

// Seeding decides which round-1 slots receive byes when the team count is not
// a power of two.
type Seeding string

const (
	// SeedSequential gives the byes to the first teams in the given order and
	// pairs the rest in order.
	SeedSequential Seeding = "sequential"
	// SeedStandard uses classic tournament seeding (1 v N, 2 v N-1, ...),
	// which spreads the byes over the top seeds.
	SeedStandard Seeding = "standard"
)

func ParseSeeding(s string) (Seeding, error) {
	switch Seeding(s) {
	case SeedSequential, SeedStandard:
		return Seeding(s), nil
	case "":
		return SeedSequential, nil
	}
	return "", fmt.Errorf("%w: unknown seeding %q", ErrValidation, s)
}

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func BracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

// Rounds is ceil(log2(count)).
func Rounds(count int) int {
	size := BracketSize(count)
	if size <= 1 {
		return 0
	}
	return int(math.Log2(float64(size)))
}

func Byes(count int) int {
	return BracketSize(count) - count
}

// Layout returns the round-1 slot order: slot i holds the index of a team in
// the input list, or -1 for a bye. Slots 2k and 2k+1 form a pairing.
func (s Seeding) Layout(count int) ([]int, error) {
	size := BracketSize(count)
	slots := make([]int, size)

	switch s {
	case SeedSequential, "":
		byes := size - count
		for i := 0; i < byes; i++ {
			slots[2*i] = i
			slots[2*i+1] = -1
		}
		team := byes
		for i := 2 * byes; i < size; i++ {
			slots[i] = team
			team++
		}
	case SeedStandard:
		for i, pair := range standardPairs(size) {
			for j, seed := range pair {
				if seed >= count {
					seed = -1
				}
				slots[2*i+j] = seed
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown seeding %q", ErrValidation, s)
	}
	return slots, nil
}

func standardPairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}

	return pairs
}
