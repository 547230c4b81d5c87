package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/seenimoa/flightdesk/internal/agent/prompts"
	"github.com/seenimoa/flightdesk/internal/llm"
	"github.com/seenimoa/flightdesk/pkg/models"
)

// NotificationAgent writes the short confirmation message sent with the
// ticket.
type NotificationAgent struct {
	*BaseAgent
}

// NewNotificationAgent creates the message writer. provider may be nil.
func NewNotificationAgent(provider llm.LLMProvider) *NotificationAgent {
	return &NotificationAgent{
		BaseAgent: NewBaseAgent(BaseAgentConfig{
			Name:         prompts.AgentNotification,
			Role:         "Booking confirmation writer",
			SystemPrompt: prompts.NotificationSystemPrompt,
			Provider:     provider,
			ChatOptions:  &llm.ChatOptions{Temperature: 0.7, MaxTokens: 300},
			MemorySize:   4,
			MaxToolIter:  1,
		}),
	}
}

// Compose returns the confirmation message, falling back to a fixed
// template when no model is available.
func (a *NotificationAgent) Compose(ctx context.Context, c *models.BookingConfirmation) (string, error) {
	if c == nil {
		return "", fmt.Errorf("%w: no booking to announce", models.ErrValidation)
	}
	if a.Provider() == nil {
		return ConfirmationMessage(c), nil
	}
	res, err := a.Process(ctx, prompts.NotificationTask(c.Reference, string(c.Status)))
	if err != nil {
		log.Printf("agent/notification: LLM message failed, using template: %v", err)
		return ConfirmationMessage(c), nil
	}
	msg := strings.TrimSpace(res.Content)
	if msg == "" {
		return ConfirmationMessage(c), nil
	}
	return msg, nil
}

// ConfirmationMessage is the templated confirmation text.
func ConfirmationMessage(c *models.BookingConfirmation) string {
	return fmt.Sprintf("Thank you for booking with flightdesk! Your booking reference is %s (%s). "+
		"Your e-ticket has been sent to your email. Web check-in opens 24 hours before departure, "+
		"and please arrive at the airport early. Have a great flight!", c.Reference, c.Status)
}
