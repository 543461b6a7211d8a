// Package card renders the "Journey Complete" results card as a PDF.
package card

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

type CardData struct {
	SessionID    string
	Name         string
	Difficulty   string
	Score        int
	HighScore    int
	NewHighScore bool
	Rank         string
	Questions    int
	Date         time.Time
	ShareText    string
}

// Render builds a one-page landscape card.
func Render(data CardData) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A5", "")
	pdf.SetTitle("Melkam Genna Challenge", false)
	pdf.AddPage()

	// gold frame
	pdf.SetDrawColor(212, 175, 55)
	pdf.SetLineWidth(1.2)
	w, h := pdf.GetPageSize()
	pdf.Rect(6, 6, w-12, h-12, "D")

	pdf.SetTextColor(212, 175, 55)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.Ln(8)
	pdf.CellFormat(0, 14, "Journey Complete", "", 1, "C", false, 0, "")

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(0, 8, "Melkam Genna Quiz", "", 1, "C", false, 0, "")

	name := data.Name
	if name == "" {
		name = "Genna Pilgrim"
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 11, name, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(0, 8, fmt.Sprintf("Rank: %s", data.Rank), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8,
		fmt.Sprintf("Score: %d | Difficulty: %s | Questions: %d | Date: %s",
			data.Score, data.Difficulty, data.Questions, data.Date.Format("2006-01-02")),
		"", 1, "C", false, 0, "")

	best := fmt.Sprintf("Best score: %d", data.HighScore)
	if data.NewHighScore {
		best += " (new high score!)"
	}
	pdf.CellFormat(0, 8, best, "", 1, "C", false, 0, "")

	if data.ShareText != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 5, data.ShareText, "", "C", false)
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, "Session ID: "+data.SessionID, "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
