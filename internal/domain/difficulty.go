package domain

import (
	"strings"
	"time"
)

// Difficulty selects the question set and the per-question countdown.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// DefaultDifficulty is preselected before the player picks one.
const DefaultDifficulty = Medium

// Difficulties lists the levels in picker order.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// ParseDifficulty accepts any casing of a difficulty name.
func ParseDifficulty(raw string) (Difficulty, error) {
	for _, d := range Difficulties() {
		if strings.EqualFold(strings.TrimSpace(raw), string(d)) {
			return d, nil
		}
	}
	return "", ErrInvalidDifficulty
}

// TimeBudget is the countdown, in whole seconds, each question starts from.
func (d Difficulty) TimeBudget() int {
	switch d {
	case Hard:
		return 10
	case Medium:
		return 15
	default:
		return 25
	}
}

// TimeBudgetDuration is TimeBudget as a time.Duration.
func (d Difficulty) TimeBudgetDuration() time.Duration {
	return time.Duration(d.TimeBudget()) * time.Second
}

// Blurb is the one-line description shown in the difficulty picker.
func (d Difficulty) Blurb() string {
	switch d {
	case Hard:
		return "For scholars of the Kidase and the Ge'ez calendar."
	case Medium:
		return "Traditions, fasting and the feast."
	default:
		return "A gentle walk through the Nativity."
	}
}
