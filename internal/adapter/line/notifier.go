package line

import (
	"context"
	"fmt"
	"strconv"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
)

const headerColor = "#D9EAD3"

// Notifier sends each run summary as a flex message. Test-mode runs go to the
// test destination instead of the target group.
type Notifier struct {
	client   *Client
	targetID string
	testID   string
}

// NewNotifier creates a Notifier.
func NewNotifier(client *Client, targetID, testID string) *Notifier {
	return &Notifier{client: client, targetID: targetID, testID: testID}
}

func (n *Notifier) Channel() string { return "line" }

func (n *Notifier) Notify(ctx context.Context, s domain.RunSummary) error {
	to := n.targetID
	if s.TestMode {
		to = n.testID
	}
	return n.client.Push(ctx, to, Message{
		Type:     "flex",
		AltText:  fmt.Sprintf("Hotspot update %s: %d hotspots", s.StartedAt.Format("2006-01-02"), s.Rows),
		Contents: summaryBubble(s),
	})
}

// Flex message components. Only the fields the summary uses are modeled.
type (
	bubble struct {
		Type   string `json:"type"`
		Header box    `json:"header"`
		Body   box    `json:"body"`
	}
	box struct {
		Type            string `json:"type"`
		Layout          string `json:"layout"`
		Contents        []any  `json:"contents"`
		Spacing         string `json:"spacing,omitempty"`
		BackgroundColor string `json:"backgroundColor,omitempty"`
	}
	text struct {
		Type   string `json:"type"`
		Text   string `json:"text"`
		Size   string `json:"size,omitempty"`
		Weight string `json:"weight,omitempty"`
		Align  string `json:"align,omitempty"`
		Flex   int    `json:"flex,omitempty"`
		Wrap   bool   `json:"wrap,omitempty"`
	}
	separator struct {
		Type string `json:"type"`
	}
)

func summaryBubble(s domain.RunSummary) bubble {
	title := "Hotspot update"
	if s.TestMode {
		title += " (test)"
	}
	body := []any{
		text{Type: "text", Text: fmt.Sprintf("%d hotspots in %s", s.Rows, s.Dataset), Size: "sm", Wrap: true},
	}
	body = appendSection(body, "By country", s.Countries)
	body = appendSection(body, "By province (TH)", s.Provinces)
	body = appendSection(body, "By land use (TH)", s.LandUse)

	return bubble{
		Type: "bubble",
		Header: box{
			Type:            "box",
			Layout:          "vertical",
			BackgroundColor: headerColor,
			Contents: []any{
				text{Type: "text", Text: title, Weight: "bold", Size: "lg"},
				text{Type: "text", Text: s.StartedAt.Format("2006-01-02 15:04 MST"), Size: "xs"},
			},
		},
		Body: box{Type: "box", Layout: "vertical", Spacing: "sm", Contents: body},
	}
}

func appendSection(contents []any, title string, rows []domain.AggregateRow) []any {
	if len(rows) == 0 {
		return contents
	}
	contents = append(contents,
		separator{Type: "separator"},
		text{Type: "text", Text: title, Weight: "bold", Size: "sm"},
	)
	for _, r := range rows {
		contents = append(contents, box{
			Type:   "box",
			Layout: "horizontal",
			Contents: []any{
				text{Type: "text", Text: r.Key, Size: "sm", Flex: 4, Wrap: true},
				text{Type: "text", Text: strconv.Itoa(r.Count), Size: "sm", Flex: 1, Align: "end"},
			},
		})
	}
	return contents
}
