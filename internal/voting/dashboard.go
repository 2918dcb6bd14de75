package voting

import "github.com/emilythestrangee/decision-board/backend/internal/models"

// TrendSize is how many of the newest decisions feed the dashboard trend.
const TrendSize = 7

// Totals are a user's all-time aggregates, counted in the database.
type Totals struct {
	Decisions  int
	Up         int
	Down       int
	Comments   int
	Categories []CategoryCount
}

// CategoryCount is one GROUP BY row; a nil Category is uncategorized.
type CategoryCount struct {
	Category *string
	Count    int
}

// Summarize builds dashboard statistics from a user's totals and their
// newest decisions, newest first. Only the first TrendSize of recent are
// used.
func Summarize(t Totals, recent []models.DecisionView) models.Dashboard {
	d := models.Dashboard{
		TotalDecisions: t.Decisions,
		TotalUp:        t.Up,
		TotalDown:      t.Down,
		TotalComments:  t.Comments,
		Categories:     make(map[string]int, len(t.Categories)),
		Trend:          make([]models.TrendPoint, 0, min(len(recent), TrendSize)),
	}
	for _, c := range t.Categories {
		label := models.UncategorizedLabel
		if c.Category != nil && *c.Category != "" {
			label = *c.Category
		}
		d.Categories[label] += c.Count
	}
	for _, v := range recent[:min(len(recent), TrendSize)] {
		d.Trend = append(d.Trend, models.TrendPoint{
			DecisionID: v.ID,
			Title:      v.Title,
			Up:         v.Votes.Up,
			Down:       v.Votes.Down,
		})
	}
	return d
}
