package app

import "fmt"

const (
	// BasePoints is awarded for every correct answer.
	BasePoints = 500
	// BonusPerSecond is added per remaining second unless a hint disabled the bonus.
	BonusPerSecond = 100
)

// AwardPoints scores one answered question.
func AwardPoints(correct, bonusDisabled bool, timeLeft int) int {
	if !correct {
		return 0
	}
	if bonusDisabled || timeLeft < 0 {
		return BasePoints
	}
	return BasePoints + timeLeft*BonusPerSecond
}

// RankFor is the results label for a final score.
func RankFor(score int) string {
	switch {
	case score >= 4000:
		return "Scholar"
	case score >= 2000:
		return "Faithful Learner"
	default:
		return "Pilgrim"
	}
}

// ShareText is the message a player shares from the results view.
func ShareText(score int, url string) string {
	return fmt.Sprintf("I just scored %d points on the Melkam Genna Quiz! Test your knowledge of Ethiopian Christmas traditions. %s", score, url)
}

// LoadingTips rotate on the loading screen while questions are generated.
var LoadingTips = []string{
	"Did you know? Genna is celebrated on Tahsas 29 (January 7th).",
	"Tsome Nebiyat is the 43-day fast of the prophets preceding Christmas.",
	"YeGenna Chewata is a traditional hockey-like game played by shepherds.",
	"Lalibela's rock-hewn churches represent the humble birth of Christ.",
	"Ethiopians traditionally wear a white Shamma with a colored border on Genna.",
	"The date of Genna matches the Julian calendar which Ethiopia follows.",
}
