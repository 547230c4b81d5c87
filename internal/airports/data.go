package airports

import "github.com/seenimoa/flightdesk/pkg/models"

// builtin is the static directory. Within a city, the first entry is the
// primary airport.
var builtin = []models.Airport{
	// United States
	{Code: "JFK", Name: "John F. Kennedy International Airport", City: "New York", Country: "USA"},
	{Code: "LGA", Name: "LaGuardia Airport", City: "New York", Country: "USA"},
	{Code: "EWR", Name: "Newark Liberty International Airport", City: "New York", Country: "USA"},
	{Code: "LAX", Name: "Los Angeles International Airport", City: "Los Angeles", Country: "USA"},
	{Code: "ORD", Name: "O'Hare International Airport", City: "Chicago", Country: "USA"},
	{Code: "MIA", Name: "Miami International Airport", City: "Miami", Country: "USA"},
	{Code: "SFO", Name: "San Francisco International Airport", City: "San Francisco", Country: "USA"},
	{Code: "SEA", Name: "Seattle-Tacoma International Airport", City: "Seattle", Country: "USA"},
	{Code: "LAS", Name: "Harry Reid International Airport", City: "Las Vegas", Country: "USA"},
	{Code: "BOS", Name: "Logan International Airport", City: "Boston", Country: "USA"},
	{Code: "IAD", Name: "Washington Dulles International Airport", City: "Washington DC", Country: "USA"},
	{Code: "DCA", Name: "Ronald Reagan Washington National Airport", City: "Washington DC", Country: "USA"},
	{Code: "ATL", Name: "Hartsfield-Jackson Atlanta International Airport", City: "Atlanta", Country: "USA"},
	{Code: "DFW", Name: "Dallas/Fort Worth International Airport", City: "Dallas", Country: "USA"},
	{Code: "DEN", Name: "Denver International Airport", City: "Denver", Country: "USA"},
	{Code: "PHX", Name: "Phoenix Sky Harbor International Airport", City: "Phoenix", Country: "USA"},

	// Europe
	{Code: "LHR", Name: "Heathrow Airport", City: "London", Country: "UK"},
	{Code: "LGW", Name: "Gatwick Airport", City: "London", Country: "UK"},
	{Code: "STN", Name: "Stansted Airport", City: "London", Country: "UK"},
	{Code: "CDG", Name: "Charles de Gaulle Airport", City: "Paris", Country: "France"},
	{Code: "ORY", Name: "Orly Airport", City: "Paris", Country: "France"},
	{Code: "FRA", Name: "Frankfurt Airport", City: "Frankfurt", Country: "Germany"},
	{Code: "AMS", Name: "Amsterdam Airport Schiphol", City: "Amsterdam", Country: "Netherlands"},
	{Code: "MAD", Name: "Adolfo Suárez Madrid-Barajas Airport", City: "Madrid", Country: "Spain"},
	{Code: "BCN", Name: "Barcelona-El Prat Airport", City: "Barcelona", Country: "Spain"},
	{Code: "FCO", Name: "Leonardo da Vinci-Fiumicino Airport", City: "Rome", Country: "Italy"},
	{Code: "MXP", Name: "Milan Malpensa Airport", City: "Milan", Country: "Italy"},
	{Code: "IST", Name: "Istanbul Airport", City: "Istanbul", Country: "Turkey"},
	{Code: "MUC", Name: "Munich Airport", City: "Munich", Country: "Germany"},
	{Code: "ZRH", Name: "Zurich Airport", City: "Zurich", Country: "Switzerland"},

	// Middle East
	{Code: "DXB", Name: "Dubai International Airport", City: "Dubai", Country: "UAE"},
	{Code: "DOH", Name: "Hamad International Airport", City: "Doha", Country: "Qatar"},
	{Code: "AUH", Name: "Abu Dhabi International Airport", City: "Abu Dhabi", Country: "UAE"},

	// Asia
	{Code: "SIN", Name: "Singapore Changi Airport", City: "Singapore", Country: "Singapore"},
	{Code: "HKG", Name: "Hong Kong International Airport", City: "Hong Kong", Country: "Hong Kong"},
	{Code: "NRT", Name: "Narita International Airport", City: "Tokyo", Country: "Japan"},
	{Code: "HND", Name: "Haneda Airport", City: "Tokyo", Country: "Japan"},
	{Code: "ICN", Name: "Incheon International Airport", City: "Seoul", Country: "South Korea"},
	{Code: "BKK", Name: "Suvarnabhumi Airport", City: "Bangkok", Country: "Thailand"},
	{Code: "KUL", Name: "Kuala Lumpur International Airport", City: "Kuala Lumpur", Country: "Malaysia"},
	{Code: "PEK", Name: "Beijing Capital International Airport", City: "Beijing", Country: "China"},
	{Code: "PVG", Name: "Shanghai Pudong International Airport", City: "Shanghai", Country: "China"},

	// India
	{Code: "BOM", Name: "Chhatrapati Shivaji Maharaj International Airport", City: "Mumbai", Country: "India"},
	{Code: "DEL", Name: "Indira Gandhi International Airport", City: "Delhi", Country: "India"},
	{Code: "BLR", Name: "Kempegowda International Airport", City: "Bangalore", Country: "India"},
	{Code: "MAA", Name: "Chennai International Airport", City: "Chennai", Country: "India"},
	{Code: "CCU", Name: "Netaji Subhas Chandra Bose International Airport", City: "Kolkata", Country: "India"},
	{Code: "HYD", Name: "Rajiv Gandhi International Airport", City: "Hyderabad", Country: "India"},
	{Code: "GOI", Name: "Dabolim Airport", City: "Goa", Country: "India"},

	// Canada
	{Code: "YYZ", Name: "Toronto Pearson International Airport", City: "Toronto", Country: "Canada"},
	{Code: "YVR", Name: "Vancouver International Airport", City: "Vancouver", Country: "Canada"},
	{Code: "YUL", Name: "Montréal-Pierre Elliott Trudeau International Airport", City: "Montreal", Country: "Canada"},

	// Oceania
	{Code: "SYD", Name: "Sydney Kingsford Smith Airport", City: "Sydney", Country: "Australia"},
	{Code: "MEL", Name: "Melbourne Airport", City: "Melbourne", Country: "Australia"},
	{Code: "AKL", Name: "Auckland Airport", City: "Auckland", Country: "New Zealand"},

	// Latin America
	{Code: "GRU", Name: "São Paulo/Guarulhos International Airport", City: "São Paulo", Country: "Brazil"},
	{Code: "MEX", Name: "Mexico City International Airport", City: "Mexico City", Country: "Mexico"},
	{Code: "EZE", Name: "Ministro Pistarini International Airport", City: "Buenos Aires", Country: "Argentina"},
}
