package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/smartagrinode/agrinode/pkg/models"
)

const timeLayout = "2006-01-02 15:04"

// CropResult prints a crop recommendation.
func (p *Printer) CropResult(res *models.CropRecommendationResult) {
	body := lipgloss.JoinVertical(lipgloss.Left,
		p.s.title.Render("Crop recommendation"),
		p.row("Crop", res.RecommendedCrop),
		p.row("Confidence", fmt.Sprintf("%d%%", res.ConfidencePercent())),
	)
	fmt.Fprintln(p.out, p.s.box.Render(body))
}

// WeedResult prints a weed detection; saved is where the annotated image
// was written, if anywhere.
func (p *Printer) WeedResult(res *models.WeedDetectionResult, saved string) {
	lines := []string{
		p.s.title.Render("Weed detection"),
		p.row("Weeds found", strconv.Itoa(res.Detections)),
	}
	if res.Message != "" {
		lines = append(lines, p.row("Message", res.Message))
	}
	if saved != "" {
		lines = append(lines, p.row("Annotated", saved))
	}
	fmt.Fprintln(p.out, p.s.box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

// SensorReading prints a soil measurement.
func (p *Printer) SensorReading(r *models.SensorReading) {
	body := lipgloss.JoinVertical(lipgloss.Left,
		p.s.title.Render("Soil sensors"),
		p.row("Nitrogen", formatFloat(r.N)+" kg/ha"),
		p.row("Phosphorus", formatFloat(r.P)+" kg/ha"),
		p.row("Potassium", formatFloat(r.K)+" kg/ha"),
		p.row("Soil pH", formatFloat(r.PH)),
	)
	fmt.Fprintln(p.out, p.s.box.Render(body))
}

// SensorProgress prints one poll tick of a pending measurement.
func (p *Printer) SensorProgress(status *models.SensorStatus) {
	if status.Complete() {
		return
	}
	p.Info("waiting for sensor reading (%s)...", status.Status)
}

// ScanProgress prints how many camera frames have arrived.
func (p *Printer) ScanProgress(res *models.WeedScanResults, expected int) {
	p.Info("received %d/%d images, %d weeds so far", res.Count, expected, res.TotalWeeds())
}

// ScanSummary prints the outcome of a camera scan.
func (p *Printer) ScanSummary(res *models.WeedScanResults, saved []string) {
	lines := []string{
		p.s.title.Render("Field scan"),
		p.row("Images", strconv.Itoa(res.Count)),
		p.row("Weeds found", strconv.Itoa(res.TotalWeeds())),
	}
	for i, img := range res.Results {
		label := fmt.Sprintf("Image %d", i+1)
		value := fmt.Sprintf("%d weeds", img.WeedCount)
		if i < len(saved) {
			value += "  " + p.s.dim.Render(saved[i])
		}
		lines = append(lines, p.row(label, value))
	}
	fmt.Fprintln(p.out, p.s.box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

// User prints the signed-in account.
func (p *Printer) User(u *models.User) {
	lines := []string{
		p.s.title.Render("Signed in"),
		p.row("Username", u.DisplayName()),
	}
	if u.Email != "" {
		lines = append(lines, p.row("Email", u.Email))
	}
	if u.AvatarURL != "" {
		lines = append(lines, p.row("Avatar", u.AvatarURL))
	}
	if !u.CreatedAt.IsZero() {
		lines = append(lines, p.row("Member since", u.CreatedAt.Local().Format("2006-01-02")))
	}
	fmt.Fprintln(p.out, p.s.box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

// Health prints the backend health report.
func (p *Printer) Health(h *models.HealthStatus) {
	yesNo := func(ok bool) string {
		if ok {
			return p.s.success.Render("loaded")
		}
		return p.s.failure.Render("not loaded")
	}
	lines := []string{
		p.s.title.Render("Backend health"),
		p.row("Status", h.Status),
		p.row("Crop model", yesNo(h.CropModelLoaded)),
		p.row("Weed model", yesNo(h.WeedModelLoaded)),
	}
	if h.Database != "" {
		lines = append(lines, p.row("Database", h.Database))
	}
	fmt.Fprintln(p.out, p.s.box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

// History prints the activity tables.
func (p *Printer) History(h *models.History) {
	if h.Empty() {
		p.Info("No activity yet.")
		return
	}

	if len(h.CropRecommendations) > 0 {
		t := p.table("Date", "Crop", "Confidence", "N/P/K", "pH")
		for _, rec := range h.CropRecommendations {
			npk, ph := "-", "-"
			if in := rec.InputData; in != nil {
				npk = strings.Join([]string{formatFloat(in.N), formatFloat(in.P), formatFloat(in.K)}, "/")
				ph = formatFloat(in.PH)
			}
			t.Row(
				rec.CreatedAt.Local().Format(timeLayout),
				rec.RecommendedCrop,
				fmt.Sprintf("%d%%", models.CropRecommendationResult{Confidence: rec.Confidence}.ConfidencePercent()),
				npk,
				ph,
			)
		}
		fmt.Fprintln(p.out, p.s.title.Render("Crop recommendations"))
		fmt.Fprintln(p.out, t.String())
	}

	if len(h.WeedDetections) > 0 {
		t := p.table("Date", "Image", "Weeds")
		for _, rec := range h.WeedDetections {
			t.Row(
				rec.CreatedAt.Local().Format(timeLayout),
				rec.ImageFilename,
				strconv.Itoa(rec.WeedCount),
			)
		}
		fmt.Fprintln(p.out, p.s.title.Render("Weed detections"))
		fmt.Fprintln(p.out, t.String())
	}
}

func (p *Printer) table(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.s.dim).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.s.label.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
