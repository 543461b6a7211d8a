package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session id is unknown or already closed.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrInvalidDifficulty indicates an unknown difficulty name.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrOptionNotFound indicates a selected option id is not part of the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrNoSelection is returned when submitting before choosing an option.
	ErrNoSelection = errors.New("no option selected")
	// ErrAlreadyAnswered is returned for actions that are only legal before answering.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered is returned when advancing past an unanswered question.
	ErrNotAnswered = errors.New("question not answered yet")
	// ErrHintPending is returned when a hint is requested while one is in flight.
	ErrHintPending = errors.New("hint already requested")
	// ErrWrongPhase is returned when an action does not apply to the session's current state.
	ErrWrongPhase = errors.New("action not allowed in current quiz state")
	// ErrNoQuestions indicates the content client returned an empty question set.
	ErrNoQuestions = errors.New("no questions generated")
	// ErrMissingAPIKey is returned by the content client when no API key is configured.
	ErrMissingAPIKey = errors.New("API key not found")
	// ErrTrackNotFound indicates an unknown playlist track id.
	ErrTrackNotFound = errors.New("track not found")
	// ErrBundledTrack is returned when removing one of the bundled tracks.
	ErrBundledTrack = errors.New("bundled tracks cannot be removed")
	// ErrInvalidCategory indicates an unknown learn category filter.
	ErrInvalidCategory = errors.New("invalid learn category")
	// ErrNotLoggedIn is returned when an operation needs a stored profile.
	ErrNotLoggedIn = errors.New("not logged in")
)
