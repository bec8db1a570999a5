package assistant

// IntentName tags a recognized user intent.
type IntentName string

const (
	IntentGreeting        IntentName = "greeting"
	IntentMyAppointments  IntentName = "my_appointments"
	IntentListSlots       IntentName = "list_slots"
	IntentBookAppointment IntentName = "book_appointment"
	IntentFindDoctor      IntentName = "find_doctor"
	IntentPharmacy        IntentName = "pharmacy"
	IntentLab             IntentName = "lab"
	IntentHelp            IntentName = "help"
)

// intent is one row of the dispatch table: a tag, the keywords that select
// it and the handler that produces the reply. Matching is first-wins in
// table order, so narrower intents sit above broader ones ("my
// appointments" before "appointment").
type intent struct {
	name     IntentName
	keywords []string
	handle   handlerFunc
}

// intentTable builds the dispatch table. Keywords cover English and
// Swahili; a keyword with a space is matched as a phrase against the whole
// message, single words against individual tokens.
func (s *Service) intentTable() []intent {
	return []intent{
		{
			name:     IntentGreeting,
			keywords: []string{"hello", "hi", "hey", "habari", "jambo", "mambo", "salama"},
			handle:   s.handleGreeting,
		},
		{
			name:     IntentMyAppointments,
			keywords: []string{"my appointments", "miadi yangu", "upcoming", "my bookings"},
			handle:   s.handleMyAppointments,
		},
		{
			name:     IntentListSlots,
			keywords: []string{"slot", "available", "availability", "nafasi", "free time"},
			handle:   s.handleListSlots,
		},
		{
			name:     IntentBookAppointment,
			keywords: []string{"book", "appointment", "miadi", "consultation", "kuonana"},
			handle:   s.handleBookAppointment,
		},
		{
			name:     IntentFindDoctor,
			keywords: []string{"doctor", "daktari", "specialist", "physician", "mganga"},
			handle:   s.handleFindDoctor,
		},
		{
			name:     IntentPharmacy,
			keywords: []string{"pharmacy", "medicine", "dawa", "drug", "prescription"},
			handle:   s.handlePharmacy,
		},
		{
			name:     IntentLab,
			keywords: []string{"lab", "maabara", "test", "vipimo", "diagnosis"},
			handle:   s.handleLab,
		},
	}
}
