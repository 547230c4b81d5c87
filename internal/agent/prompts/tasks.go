package prompts

import "fmt"

// ── Task Templates ──

// SearchTask wraps the user's request with today's date so relative dates
// ("tomorrow", "next Friday") resolve correctly.
func SearchTask(today, request string) string {
	return fmt.Sprintf("Current date: %s\n\nUser request: %s", today, request)
}

// SearchRetry asks the model to fix an incomplete answer.
func SearchRetry(missing string) string {
	return fmt.Sprintf(`Error: your answer is missing or has null values for: %s.
Use the airport lookup tools to find the correct IATA codes and provide all required fields.`, missing)
}

// TicketTask asks for a ticket built from the JSON booking data.
func TicketTask(bookingJSON string) string {
	return fmt.Sprintf("Generate the e-ticket for this booking.\n\nBooking data:\n%s", bookingJSON)
}

// NotificationTask asks for the confirmation message.
func NotificationTask(reference, status string) string {
	return fmt.Sprintf("Write the confirmation message.\n\nbooking_reference: %s\nstatus: %s", reference, status)
}
