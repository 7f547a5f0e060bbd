// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/typespeed/internal/model"
)

const sparkChars = " .:-=+*#%@"

// CharsPerWord is the word length convention used for WPM.
const CharsPerWord = 5

// SessionMetrics computes rounded WPM, CPM, and accuracy (0-100) for a typed prefix.
func SessionMetrics(correct, total int, elapsed time.Duration) (wpm, cpm, accuracy int) {
	if total > 0 {
		accuracy = int(math.Round(float64(correct) / float64(total) * 100))
	}
	minutes := elapsed.Minutes()
	if minutes <= 0 {
		return 0, 0, accuracy
	}
	wpm = int(math.Round((float64(correct) / CharsPerWord) / minutes))
	cpm = int(math.Round(float64(correct) / minutes))
	return wpm, cpm, accuracy
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderUserStats prints the aggregate stats of one user.
func RenderUserStats(w io.Writer, username string, st *model.UserStats) error {
	if st == nil {
		_, err := fmt.Fprintf(w, "No results found for %s.\n", username)
		return err
	}
	lines := []string{
		fmt.Sprintf("Stats for %s", username),
		fmt.Sprintf("Tests: %d", st.TotalTests),
		fmt.Sprintf("Avg WPM: %.2f", st.AvgWPM),
		fmt.Sprintf("Best WPM: %.2f", st.BestWPM),
		fmt.Sprintf("Avg Accuracy: %.2f%%", st.AvgAccuracy),
		fmt.Sprintf("Best Accuracy: %.2f%%", st.BestAccuracy),
		fmt.Sprintf("Time typed: %s", formatSeconds(st.TotalTime)),
		fmt.Sprintf("Easy/Medium/Hard: %d/%d/%d",
			st.DifficultyBreakdown.Easy, st.DifficultyBreakdown.Medium, st.DifficultyBreakdown.Hard),
		fmt.Sprintf("Trend: %s WPM, %s%% accuracy",
			signed(st.Improvement.WPMChange), signed(st.Improvement.AccuracyChange)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderResults prints a table of results, newest first.
func RenderResults(w io.Writer, title string, results []model.TestResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	headers := []string{"Date", "Difficulty", "WPM", "CPM", "Accuracy", "Time"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(r.Difficulty),
			fmt.Sprintf("%.0f", r.WPM),
			fmt.Sprintf("%.0f", r.CPM),
			fmt.Sprintf("%.0f%%", r.Accuracy),
			formatSeconds(int64(r.TotalTime)),
		})
	}
	rightAlign := map[int]bool{2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderLeaderboard prints ranked results.
func RenderLeaderboard(w io.Writer, results []model.TestResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "Leaderboard is empty.")
		return err
	}
	headers := []string{"#", "User", "Difficulty", "WPM", "Accuracy", "Date"}
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.Username,
			string(r.Difficulty),
			fmt.Sprintf("%.0f", r.WPM),
			fmt.Sprintf("%.0f%%", r.Accuracy),
			r.CreatedAt.Local().Format("2006-01-02"),
		})
	}
	rightAlign := map[int]bool{0: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurve prints a sparkline of WPM over results given oldest first.
func RenderCurve(w io.Writer, results []model.TestResult, window, width int) error {
	if len(results) < 2 {
		return nil
	}
	wpms := make([]float64, len(results))
	for i, r := range results {
		wpms[i] = r.WPM
	}
	wpms = MovingAverage(wpms, window)
	if width > 0 && len(wpms) > width {
		wpms = wpms[len(wpms)-width:]
	}
	_, err := fmt.Fprintf(w, "WPM trend: %s\n\n", Sparkline(wpms))
	return err
}

func formatSeconds(total int64) string {
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	d := time.Duration(total) * time.Second
	h := int64(d.Hours())
	m := int64(d.Minutes()) % 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func signed(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
