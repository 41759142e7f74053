package whereonearth

import "math"

// SelectWinner returns the entry closest to the true location. Ties go to
// the earliest entry.
func SelectWinner(entries []Entry) (Result, error) {
	if len(entries) == 0 {
		return Result{}, ErrNoEntries
	}

	best := Result{DistanceKm: math.MaxFloat64}
	for _, e := range entries {
		if e.DistanceKm < best.DistanceKm {
			best = Result{
				WinnerName:  e.UserName,
				WinnerGuess: e.ResolvedName,
				DistanceKm:  e.DistanceKm,
			}
		}
	}
	return best, nil
}

// Complete freezes the winner into the challenge.
func (c *Challenge) Complete() error {
	res, err := SelectWinner(c.Entries)
	if err != nil {
		return err
	}
	c.Result = &res
	c.Status = StatusCompleted
	return nil
}
