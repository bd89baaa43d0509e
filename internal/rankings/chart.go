package rankings

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PratikDhanave/site-analytics/internal/models"
)

// MaxRows is how many rankings a chart shows.
const MaxRows = 10

const (
	defaultBarWidth = 40
	defaultFrames   = 12
	clearScreen     = "\033[H\033[2J"
)

// Chart holds the last loaded rows for one set of Params. It is not safe for
// concurrent use.
type Chart struct {
	Title   string
	Heading string
	Source  Fetcher

	// DataFilter runs before the top rows are taken.
	DataFilter func([]models.Ranking) []models.Ranking
	// OnDataLoad is called with every freshly fetched data set.
	OnDataLoad func([]models.Ranking)

	Animate    bool
	Frames     int
	FrameDelay time.Duration
	BarWidth   int

	params Params
	data   []models.Ranking
	loaded bool
}

// Update fetches when the website, date range or type differ from the last
// load. It reports whether a fetch happened. No website means nothing to load.
func (c *Chart) Update(ctx context.Context, p Params) (bool, error) {
	if p.WebsiteID == "" {
		return false, nil
	}
	if c.loaded && c.params.equal(p) {
		return false, nil
	}

	data, err := c.Source.Fetch(ctx, p)
	if err != nil {
		return false, err
	}

	c.params = p
	c.data = data
	c.loaded = true
	if c.OnDataLoad != nil {
		c.OnDataLoad(data)
	}
	return true, nil
}

// Rankings returns at most MaxRows rows, in the order they were loaded.
func (c *Chart) Rankings() []models.Ranking {
	if !c.loaded {
		return nil
	}
	rows := c.data
	if c.DataFilter != nil {
		rows = c.DataFilter(rows)
	}
	if len(rows) > MaxRows {
		rows = rows[:MaxRows]
	}
	return rows
}

// Render writes the chart. Before the first load it writes nothing. When
// Animate is set the values grow from zero over Frames frames.
func (c *Chart) Render(w io.Writer) error {
	if !c.loaded {
		return nil
	}
	rows := c.Rankings()

	if !c.Animate {
		return c.renderFrame(w, rows, 1)
	}

	frames := c.Frames
	if frames <= 0 {
		frames = defaultFrames
	}
	for i := 1; i <= frames; i++ {
		if _, err := io.WriteString(w, clearScreen); err != nil {
			return err
		}
		if err := c.renderFrame(w, rows, easeOut(float64(i)/float64(frames))); err != nil {
			return err
		}
		if i < frames && c.FrameDelay > 0 {
			time.Sleep(c.FrameDelay)
		}
	}
	return nil
}

func (c *Chart) renderFrame(w io.Writer, rows []models.Ranking, progress float64) error {
	width := c.BarWidth
	if width <= 0 {
		width = defaultBarWidth
	}
	labelWidth := 0
	for _, r := range rows {
		if n := len([]rune(r.X)); n > labelWidth {
			labelWidth = n
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", c.Title, c.Heading)
	for _, r := range rows {
		value := r.Y * progress
		percent := r.Z * progress
		bar := int(percent / 100 * float64(width))
		fmt.Fprintf(&b, "%-*s %8.0f %4.0f%% %s\n", labelWidth, r.X, value, percent, strings.Repeat("█", bar))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// easeOut decelerates towards the final value.
func easeOut(t float64) float64 {
	return 1 - (1-t)*(1-t)*(1-t)
}
