package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/seenimoa/flightdesk/internal/agent/prompts"
	"github.com/seenimoa/flightdesk/internal/airports"
	"github.com/seenimoa/flightdesk/internal/infra"
	"github.com/seenimoa/flightdesk/internal/llm"
	"github.com/seenimoa/flightdesk/pkg/models"
	"github.com/seenimoa/flightdesk/pkg/utils"
)

// SearchAgent turns a natural-language request into a SearchRequest. The
// model resolves cities through the airport tools and answers with JSON.
type SearchAgent struct {
	*BaseAgent
	now        infra.Clock
	maxResults int
}

// SearchOption configures the search agent.
type SearchOption func(*SearchAgent)

// WithSearchClock sets the clock used for "today" in prompts and date
// checks.
func WithSearchClock(clock infra.Clock) SearchOption {
	return func(a *SearchAgent) { a.now = clock }
}

// WithMaxResults sets the offer limit copied into parsed requests.
func WithMaxResults(n int) SearchOption {
	return func(a *SearchAgent) {
		if n > 0 {
			a.maxResults = n
		}
	}
}

// NewSearchAgent creates the request interpreter with the airport tools
// registered.
func NewSearchAgent(provider llm.LLMProvider, dir *airports.Directory, opts ...SearchOption) *SearchAgent {
	reg := llm.NewToolRegistry()
	airports.RegisterTools(reg, dir)
	a := &SearchAgent{
		BaseAgent: NewBaseAgent(BaseAgentConfig{
			Name:         prompts.AgentSearch,
			Role:         "Flight request interpreter with airport lookup tools",
			SystemPrompt: prompts.SearchSystemPrompt,
			Provider:     provider,
			Registry:     reg,
			ChatOptions:  &llm.ChatOptions{Temperature: 0.3},
			MemorySize:   40,
			MaxToolIter:  10,
		}),
		now:        time.Now,
		maxResults: 10,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// parsedRequest is the JSON shape the model is asked to produce. Fields
// the model could not determine arrive as null and decode to zero values.
type parsedRequest struct {
	OriginCity      string `json:"origin_city"`
	OriginCode      string `json:"origin_code"`
	DestinationCity string `json:"destination_city"`
	DestinationCode string `json:"destination_code"`
	DepartureDate   string `json:"departure_date"`
	DepartureTime   string `json:"departure_time"`
	Adults          int    `json:"adults"`
	TravelClass     string `json:"travel_class"`
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Parse interprets text. When the model leaves required fields empty it is
// asked once to fill them in. Incomplete or malformed answers return
// models.ErrValidation naming the problem; the conversation stays in
// memory so a rephrased request can build on it. Provider failures return
// models.ErrExternalService.
func (a *SearchAgent) Parse(ctx context.Context, text string) (*models.SearchRequest, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty request", models.ErrValidation)
	}

	task := prompts.SearchTask(utils.FormatDate(a.now()), text)
	for attempt := 0; ; attempt++ {
		res, err := a.ProcessWithMessages(ctx, task, a.Memory().Messages())
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: interpret request: %v", models.ErrExternalService, err)
		}

		req, missing, err := a.decode(res.Content)
		if len(missing) > 0 && attempt < selfCorrections {
			task = prompts.SearchRetry(strings.Join(missing, ", "))
			continue
		}
		if err != nil {
			return nil, err
		}
		req.Hint = text
		return req, nil
	}
}

// selfCorrections is how often the model is asked to fill in fields it
// left out before the request is rejected.
const selfCorrections = 1

// decode validates the model's answer. missing lists required fields the
// model left empty.
func (a *SearchAgent) decode(content string) (*models.SearchRequest, []string, error) {
	raw, err := ExtractJSON(content)
	if err != nil {
		return nil, nil, err
	}
	var p parsedRequest
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, nil, fmt.Errorf("%w: model reply is not valid JSON: %v", models.ErrValidation, err)
	}

	var missing []string
	if strings.TrimSpace(p.OriginCode) == "" {
		missing = append(missing, "origin_code")
	}
	if strings.TrimSpace(p.DestinationCode) == "" {
		missing = append(missing, "destination_code")
	}
	if strings.TrimSpace(p.DepartureDate) == "" {
		missing = append(missing, "departure_date")
	}
	if len(missing) > 0 {
		return nil, missing, fmt.Errorf("%w: missing %s", models.ErrValidation, strings.Join(missing, ", "))
	}

	origin := utils.NormalizeCode(p.OriginCode)
	dest := utils.NormalizeCode(p.DestinationCode)
	if !utils.IsIATACode(origin) || !utils.IsIATACode(dest) {
		return nil, nil, fmt.Errorf("%w: %q and %q must be 3-letter airport codes", models.ErrValidation, p.OriginCode, p.DestinationCode)
	}
	if origin == dest {
		return nil, nil, fmt.Errorf("%w: origin and destination are both %s", models.ErrValidation, origin)
	}

	date, err := utils.ParseDate(p.DepartureDate)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: departure_date %q is not YYYY-MM-DD", models.ErrValidation, p.DepartureDate)
	}
	if date.Before(utils.Day(a.now())) {
		return nil, nil, fmt.Errorf("%w: departure date %s is in the past", models.ErrValidation, utils.FormatDate(date))
	}

	adults := p.Adults
	if adults < 1 {
		adults = 1
	}
	depTime := strings.TrimSpace(p.DepartureTime)
	if !clockPattern.MatchString(depTime) {
		depTime = ""
	}

	return &models.SearchRequest{
		OriginCity:      strings.TrimSpace(p.OriginCity),
		OriginCode:      origin,
		DestinationCity: strings.TrimSpace(p.DestinationCity),
		DestinationCode: dest,
		DepartureDate:   date,
		DepartureTime:   depTime,
		Adults:          adults,
		TravelClass:     models.ParseFareClass(p.TravelClass),
		MaxResults:      a.maxResults,
	}, nil, nil
}
