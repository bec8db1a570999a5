package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/afyalink/afya-platform/internal/appointments"
	"github.com/afyalink/afya-platform/internal/directory"
	"github.com/afyalink/afya-platform/internal/scheduling"
	"github.com/afyalink/afya-platform/pkg/logging"
)

var tracer = otel.Tracer("afya.internal.assistant")

// Reply is the structured answer the assistant returns. Text is always
// set; the typed fields carry whatever the matched intent looked up.
type Reply struct {
	Intent       IntentName                  `json:"intent"`
	Text         string                      `json:"text"`
	Suggestions  []string                    `json:"suggestions,omitempty"`
	Doctors      []*directory.Doctor         `json:"doctors,omitempty"`
	Pharmacies   []*directory.Pharmacy       `json:"pharmacies,omitempty"`
	Labs         []*directory.Lab            `json:"labs,omitempty"`
	Slots        []scheduling.Slot           `json:"slots,omitempty"`
	Appointments []*appointments.Appointment `json:"appointments,omitempty"`
}

// request carries a normalized message through intent handling.
type request struct {
	userID string
	role   string
	text   string   // original text, lowercased
	tokens []string // split on non-letter/digit runs
	// query is the message minus the keywords that selected the intent,
	// used as a free-text filter against the directory.
	query string
}

type handlerFunc func(ctx context.Context, req request) (*Reply, error)

// SlotSource lists open slots for a doctor on a given day. Satisfied by
// appointments.Service.
type SlotSource interface {
	AvailableSlots(ctx context.Context, doctorID string, date time.Time) ([]scheduling.Slot, error)
}

// AppointmentLister returns a user's appointments. Satisfied by
// appointments.Service.
type AppointmentLister interface {
	ListForUser(ctx context.Context, userID, role string, limit, offset int) ([]*appointments.Appointment, error)
}

// Service routes free-text messages through the intent table.
type Service struct {
	directory    *directory.Service
	slots        SlotSource
	appointments AppointmentLister
	logger       *logging.Logger
	intents      []intent
	now          func() time.Time
}

// NewService creates the assistant.
func NewService(dir *directory.Service, slots SlotSource, appts AppointmentLister, logger *logging.Logger) *Service {
	if dir == nil {
		panic("assistant: directory service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		directory:    dir,
		slots:        slots,
		appointments: appts,
		logger:       logger,
		now:          time.Now,
	}
	s.intents = s.intentTable()
	return s
}

// Respond classifies the message and runs the matched intent handler. An
// unmatched message gets the help reply.
func (s *Service) Respond(ctx context.Context, userID, role, text string) (*Reply, error) {
	ctx, span := tracer.Start(ctx, "assistant.Respond")
	defer span.End()

	req := normalize(userID, role, text)
	if req.text == "" {
		return s.handleHelp(ctx, req)
	}

	for _, in := range s.intents {
		if !match(req, in.keywords) {
			continue
		}
		req.query = s.remainder(req)
		reply, err := in.handle(ctx, req)
		if err != nil {
			s.logger.Error("intent handler failed", "intent", string(in.name), "error", err)
			return nil, err
		}
		return reply, nil
	}

	return s.handleHelp(ctx, req)
}

func (s *Service) handleGreeting(_ context.Context, _ request) (*Reply, error) {
	return &Reply{
		Intent: IntentGreeting,
		Text:   "Habari! I can help you find a doctor, check available slots, or book an appointment.",
		Suggestions: []string{
			"Find a doctor",
			"Show available slots",
			"My appointments",
		},
	}, nil
}

func (s *Service) handleFindDoctor(ctx context.Context, req request) (*Reply, error) {
	doctors, err := s.directory.SearchDoctors(ctx, directory.DoctorQuery{Text: req.query, Limit: 5})
	if err != nil {
		return nil, fmt.Errorf("assistant: doctor search: %w", err)
	}
	if len(doctors) == 0 {
		return &Reply{
			Intent:      IntentFindDoctor,
			Text:        "I could not find a doctor matching that. Try a specialty, like cardiology.",
			Suggestions: []string{"Find a cardiologist", "Show all doctors"},
		}, nil
	}
	return &Reply{
		Intent:  IntentFindDoctor,
		Text:    fmt.Sprintf("I found %d doctor(s) for you.", len(doctors)),
		Doctors: doctors,
		Suggestions: []string{
			"Show available slots for " + doctors[0].FullName,
			"Book an appointment",
		},
	}, nil
}

func (s *Service) handleListSlots(ctx context.Context, req request) (*Reply, error) {
	if s.slots == nil {
		return s.handleHelp(ctx, req)
	}

	doctors, err := s.directory.SearchDoctors(ctx, directory.DoctorQuery{Text: req.query, Limit: 2})
	if err != nil {
		return nil, fmt.Errorf("assistant: doctor search: %w", err)
	}
	if len(doctors) != 1 {
		return &Reply{
			Intent:      IntentListSlots,
			Text:        "Which doctor would you like to see? Tell me their name or specialty.",
			Doctors:     doctors,
			Suggestions: []string{"Find a doctor"},
		}, nil
	}

	doctor := doctors[0]
	date := s.now().AddDate(0, 0, 1) // next day, today's slots are mostly gone
	slots, err := s.slots.AvailableSlots(ctx, doctor.ID, date)
	if err != nil {
		return nil, fmt.Errorf("assistant: list slots: %w", err)
	}
	if len(slots) == 0 {
		return &Reply{
			Intent:      IntentListSlots,
			Text:        fmt.Sprintf("%s has no open slots on %s.", doctor.FullName, date.Format("Monday, January 2")),
			Doctors:     doctors,
			Suggestions: []string{"Find another doctor"},
		}, nil
	}
	return &Reply{
		Intent:      IntentListSlots,
		Text:        fmt.Sprintf("%s has %d open slot(s) on %s.", doctor.FullName, len(slots), date.Format("Monday, January 2")),
		Doctors:     doctors,
		Slots:       slots,
		Suggestions: []string{"Book the " + slots[0].Label + " slot"},
	}, nil
}

func (s *Service) handleBookAppointment(ctx context.Context, req request) (*Reply, error) {
	// Booking itself goes through the appointments API; the assistant
	// walks the user there.
	reply, err := s.handleFindDoctor(ctx, req)
	if err != nil {
		return nil, err
	}
	reply.Intent = IntentBookAppointment
	if len(reply.Doctors) > 0 {
		reply.Text = "Pick a doctor and a time and I will set up the booking."
	} else {
		reply.Text = "Tell me which doctor you would like to see and I will show their open slots."
	}
	return reply, nil
}

func (s *Service) handleMyAppointments(ctx context.Context, req request) (*Reply, error) {
	if s.appointments == nil || req.userID == "" {
		return &Reply{
			Intent: IntentMyAppointments,
			Text:   "Sign in to see your appointments.",
		}, nil
	}
	appts, err := s.appointments.ListForUser(ctx, req.userID, req.role, 10, 0)
	if err != nil {
		return nil, fmt.Errorf("assistant: list appointments: %w", err)
	}
	if len(appts) == 0 {
		return &Reply{
			Intent:      IntentMyAppointments,
			Text:        "You have no appointments yet.",
			Suggestions: []string{"Find a doctor", "Book an appointment"},
		}, nil
	}
	return &Reply{
		Intent:       IntentMyAppointments,
		Text:         fmt.Sprintf("You have %d appointment(s).", len(appts)),
		Appointments: appts,
	}, nil
}

func (s *Service) handlePharmacy(ctx context.Context, req request) (*Reply, error) {
	pharmacies, err := s.directory.SearchPharmacies(ctx, directory.PlaceQuery{Text: req.query, Limit: 5})
	if err != nil {
		return nil, fmt.Errorf("assistant: pharmacy search: %w", err)
	}
	if len(pharmacies) == 0 {
		return &Reply{
			Intent: IntentPharmacy,
			Text:   "I could not find a pharmacy matching that. Try a city name.",
		}, nil
	}
	return &Reply{
		Intent:     IntentPharmacy,
		Text:       fmt.Sprintf("I found %d pharmac(ies) near you.", len(pharmacies)),
		Pharmacies: pharmacies,
	}, nil
}

func (s *Service) handleLab(ctx context.Context, req request) (*Reply, error) {
	labs, err := s.directory.SearchLabs(ctx, directory.PlaceQuery{Text: req.query, Limit: 5})
	if err != nil {
		return nil, fmt.Errorf("assistant: lab search: %w", err)
	}
	if len(labs) == 0 {
		return &Reply{
			Intent: IntentLab,
			Text:   "I could not find a laboratory matching that. Try a city name.",
		}, nil
	}
	return &Reply{
		Intent: IntentLab,
		Text:   fmt.Sprintf("I found %d laborator(ies) for you.", len(labs)),
		Labs:   labs,
	}, nil
}

func (s *Service) handleHelp(_ context.Context, _ request) (*Reply, error) {
	return &Reply{
		Intent: IntentHelp,
		Text:   "I can help with finding doctors, pharmacies and labs, checking slot availability, and booking appointments.",
		Suggestions: []string{
			"Find a doctor",
			"Show available slots",
			"My appointments",
			"Find a pharmacy",
		},
	}, nil
}

func normalize(userID, role, text string) request {
	lowered := strings.ToLower(strings.TrimSpace(text))
	return request{
		userID: userID,
		role:   role,
		text:   lowered,
		tokens: tokenize(lowered),
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

// match reports whether any keyword selects this intent. Phrases match
// against the whole message, single keywords against tokens by prefix so
// "appointments" selects "appointment".
func match(req request, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(req.text, kw) {
				return true
			}
			continue
		}
		for _, tok := range req.tokens {
			if keywordMatches(kw, tok) {
				return true
			}
		}
	}
	return false
}

func keywordMatches(kw, tok string) bool {
	return tok == kw || (len(kw) >= 4 && strings.HasPrefix(tok, kw))
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "i": true, "me": true, "my": true,
	"for": true, "to": true, "in": true, "of": true, "with": true, "dr": true,
	"want": true, "need": true, "find": true, "show": true, "please": true,
	"na": true, "ya": true, "kwa": true, "tafuta": true, "nataka": true,
}

// remainder rebuilds the free-text query from tokens that belong to no
// intent keyword, dropping stopwords. What is left is the user's actual
// subject ("cardiology", a doctor's name, a city).
func (s *Service) remainder(req request) string {
	var kept []string
	for _, tok := range req.tokens {
		if stopwords[tok] || s.isIntentKeyword(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func (s *Service) isIntentKeyword(tok string) bool {
	for _, in := range s.intents {
		for _, kw := range in.keywords {
			if strings.Contains(kw, " ") {
				for _, part := range strings.Fields(kw) {
					if keywordMatches(part, tok) {
						return true
					}
				}
				continue
			}
			if keywordMatches(kw, tok) {
				return true
			}
		}
	}
	return false
}
