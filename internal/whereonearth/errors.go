package whereonearth

import "errors"

var (
	ErrDuplicateSubmitter = errors.New("already have a guess from this user")
	ErrDuplicateAnswer    = errors.New("someone has already guessed this place")
	ErrLocationNotFound   = errors.New("location not found")
	ErrNoEntries          = errors.New("no entries to pick a winner from")
	ErrConflict           = errors.New("challenge was modified concurrently")
	ErrNotGuessing        = errors.New("challenge is not accepting guesses")
	ErrAlreadyChosen      = errors.New("today's image has already been chosen")
	ErrNotFound           = errors.New("not found")
)
