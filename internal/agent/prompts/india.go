package prompts

// ── India-specific travel context ──

// IndianTravelContext reminds the ticket writer of domestic conventions.
const IndianTravelContext = `
## Travel Conventions
- Currency: Indian Rupee (₹ / INR) unless the booking data says otherwise
- GST on air fares is shown as a separate line and included in the total
- Times are local to each airport; booking timestamps are in IST (UTC+5:30)
- AADHAAR numbers are printed as XXXX-XXXX-XXXX
- Domestic check-in counters close 45 minutes before departure
`

// IndianTravelPromptSuffix returns the context block to append to a
// system prompt.
func IndianTravelPromptSuffix() string {
	return IndianTravelContext
}
