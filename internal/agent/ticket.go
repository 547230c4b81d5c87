package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/seenimoa/flightdesk/internal/agent/prompts"
	"github.com/seenimoa/flightdesk/internal/llm"
	"github.com/seenimoa/flightdesk/internal/metrics"
	"github.com/seenimoa/flightdesk/internal/present"
	"github.com/seenimoa/flightdesk/pkg/models"
	"github.com/seenimoa/flightdesk/pkg/utils"
)

// TicketAgent writes the e-ticket. Without a provider, or when the model
// fails, it falls back to the plain-text ticket.
type TicketAgent struct {
	*BaseAgent
}

// NewTicketAgent creates the ticket writer. provider may be nil.
func NewTicketAgent(provider llm.LLMProvider) *TicketAgent {
	return &TicketAgent{
		BaseAgent: NewBaseAgent(BaseAgentConfig{
			Name:         prompts.AgentTicket,
			Role:         "E-ticket writer",
			SystemPrompt: prompts.TicketSystemPrompt + prompts.IndianTravelPromptSuffix(),
			Provider:     provider,
			ChatOptions:  &llm.ChatOptions{Temperature: 0.5, MaxTokens: 1500},
			MemorySize:   4,
			MaxToolIter:  1,
		}),
	}
}

// Stream writes the ticket to w as the model produces it and returns the
// full text. If the stream fails, or the finished text lacks the booking
// reference, the plain ticket is written after a notice and returned.
func (a *TicketAgent) Stream(ctx context.Context, c *models.BookingConfirmation, w io.Writer) (string, error) {
	if c == nil {
		return "", fmt.Errorf("%w: no booking to render", models.ErrValidation)
	}
	plain := func(notice string) (string, error) {
		text := present.Ticket(c)
		if notice != "" {
			fmt.Fprintf(w, "\n\n%s\n\n", notice)
		}
		fmt.Fprint(w, text)
		return text, nil
	}
	if a.Provider() == nil {
		return plain("")
	}

	data, err := json.MarshalIndent(newTicketData(c), "", "  ")
	if err != nil {
		return "", fmt.Errorf("agent/ticket: marshal booking: %w", err)
	}
	messages := []llm.Message{
		llm.SystemMessage(a.SystemPrompt()),
		llm.UserMessage(prompts.TicketTask(string(data))),
	}
	ch, err := a.Provider().ChatStream(ctx, messages, a.ChatOptions())
	if err != nil {
		metrics.LLMCalls.WithLabelValues(a.Name(), metrics.Outcome(err)).Inc()
		log.Printf("agent/ticket: stream failed, using plain ticket: %v", err)
		return plain("")
	}

	var sb strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			err = chunk.Err
			break
		}
		sb.WriteString(chunk.Content)
		fmt.Fprint(w, chunk.Content)
	}
	metrics.LLMCalls.WithLabelValues(a.Name(), metrics.Outcome(err)).Inc()
	if err != nil {
		log.Printf("agent/ticket: stream broke off, using plain ticket: %v", err)
		if sb.Len() == 0 {
			return plain("")
		}
		return plain("(ticket generation was interrupted; plain ticket follows)")
	}
	text := strings.TrimSpace(sb.String())
	if !strings.Contains(text, c.Reference) {
		log.Printf("agent/ticket: LLM ticket does not show reference %s, using plain ticket", c.Reference)
		if text == "" {
			return plain("")
		}
		return plain("(the generated ticket was incomplete; plain ticket follows)")
	}
	fmt.Fprintln(w)
	return text, nil
}

// ── Ticket data handed to the model ──

type ticketData struct {
	Reference  string            `json:"booking_reference"`
	Status     string            `json:"status"`
	BookedAt   string            `json:"booking_date"`
	Passengers []ticketPassenger `json:"passengers"`
	Flight     ticketFlight      `json:"flight"`
	Price      ticketPrice       `json:"price"`
}

type ticketPassenger struct {
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	IDType   string `json:"id_type"`
	IDNumber string `json:"id_number"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type ticketFlight struct {
	Carrier  string          `json:"carrier"`
	Route    string          `json:"route"`
	Duration string          `json:"duration"`
	Stops    string          `json:"stops"`
	Class    string          `json:"class"`
	Segments []ticketSegment `json:"segments"`
}

type ticketSegment struct {
	Flight    string `json:"flight"`
	From      string `json:"from"`
	To        string `json:"to"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Aircraft  string `json:"aircraft,omitempty"`
}

type ticketPrice struct {
	Base     string `json:"base_fare"`
	GST      string `json:"gst"`
	GSTRate  string `json:"gst_rate"`
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

func newTicketData(c *models.BookingConfirmation) ticketData {
	o := c.Offer
	d := ticketData{
		Reference: c.Reference,
		Status:    string(c.Status),
		BookedAt:  utils.FormatDateTimeIST(c.BookedAt),
		Flight: ticketFlight{
			Carrier:  o.CarrierNames(),
			Route:    o.Origin() + " → " + o.Destination(),
			Duration: utils.FormatDuration(o.Duration),
			Stops:    present.Stops(o.Stops),
			Class:    string(o.FareClass),
		},
		Price: ticketPrice{
			Base:     utils.FormatAmount(c.Breakdown.Base),
			GST:      utils.FormatAmount(c.Breakdown.Tax),
			GSTRate:  utils.FormatPct(c.Breakdown.TaxRate),
			Total:    utils.FormatAmount(c.Breakdown.Total),
			Currency: c.Breakdown.Currency,
		},
	}
	for _, p := range c.Passengers {
		d.Passengers = append(d.Passengers, ticketPassenger{
			Name:     p.FullName(),
			Gender:   p.Gender,
			IDType:   string(p.ID.Type),
			IDNumber: p.ID.Normalized,
			Email:    p.Email,
			Phone:    p.Phone,
		})
	}
	for _, s := range o.Segments {
		d.Flight.Segments = append(d.Flight.Segments, ticketSegment{
			Flight:    s.CarrierCode + s.FlightNumber,
			From:      s.Origin,
			To:        s.Destination,
			Departure: utils.FormatDate(s.Departure) + " " + utils.FormatClock(s.Departure),
			Arrival:   utils.FormatDate(s.Arrival) + " " + utils.FormatClock(s.Arrival),
			Aircraft:  s.Aircraft,
		})
	}
	return d
}
