package voice

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
)

// MinQualifiedEmployees is the smallest field team worth a consultation.
const MinQualifiedEmployees = 5

const (
	maxReasks     = 1
	maxObjections = 2
)

type stage int

const (
	stageMobile stage = iota
	stageEmployees
	stageAppointment
	stageDone
)

var (
	declineRE   = regexp.MustCompile(`(?i)\bnot interested\b|\bno,? thanks?\b|\bno,? thank you\b|\bremove (me|us)\b|\bdo not call\b|\bdon'?t call\b|\bstop calling\b|\btake (me|us) off\b|\bwrong number\b`)
	yesRE       = regexp.MustCompile(`(?i)\b(yes|yeah|yep|yup|sure|absolutely|definitely|correct|certainly|of course|we do|they do|all of them|most of them)\b`)
	unsureRE    = regexp.MustCompile(`(?i)\b(don'?t know|not sure|no idea)\b`)
	noRE        = regexp.MustCompile(`(?i)\b(no|nope|nah|not really|don'?t|doesn'?t|do not|never|none)\b`)
	objectionRE = regexp.MustCompile(`(?i)\bthink about it\b|\bnot sure\b|\bbusy\b|\bmaybe\b|\blater\b|\bemail me\b|\bsend me\b|\bexpensive\b|\bcost\b|\bprice\b|\bno time\b`)
	countRE     = regexp.MustCompile(`\b(\d{1,5})\b`)
	clockRE     = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap])\.?\s?m\b`)
	bareAtRE    = regexp.MustCompile(`(?i)\bat (\d{1,2})(?::(\d{2}))?\b`)
	noonRE      = regexp.MustCompile(`(?i)\b(noon|midday|lunch ?time)\b`)
	weekdayRE   = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
	"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18,
	"nineteen": 19, "twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90, "hundred": 100,
	"dozen": 12,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// ScriptedAgent walks a fixed qualification script: mobile usage, team size,
// then a meeting slot. It keeps no state between requests; the call so far is
// replayed from the session history on every turn.
type ScriptedAgent struct {
	minEmployees int
}

func NewScriptedAgent() *ScriptedAgent {
	return &ScriptedAgent{minEmployees: MinQualifiedEmployees}
}

// WithMinEmployees overrides the qualification threshold.
func (a *ScriptedAgent) WithMinEmployees(n int) *ScriptedAgent {
	if n > 0 {
		a.minEmployees = n
	}
	return a
}

// Respond replays the lead's earlier answers and then answers Speech.
func (a *ScriptedAgent) Respond(ctx context.Context, s Session) (Reply, error) {
	loc := s.Loc
	if loc == nil {
		loc = time.UTC
	}
	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)

	st := &callState{minEmployees: a.minEmployees, now: now, lead: s.Lead}
	st.result.UsesMobile = leads.MobileUnknown
	for _, t := range s.History {
		if t.Speaker != calllogs.SpeakerLead {
			continue
		}
		st.step(t.Text)
		if st.stage == stageDone {
			st.result.Complete = true
			return Reply{Text: "Thanks again for your time. Goodbye!", Result: st.result}, nil
		}
	}
	text := st.step(s.Speech)
	st.result.Complete = st.stage == stageDone
	return Reply{Text: text, Result: st.result}, nil
}

type callState struct {
	minEmployees int
	now          time.Time
	lead         *leads.Lead

	stage       stage
	reasks      int
	objections  int
	haveCount   bool
	pendingDate string
	pendingTime string
	result      Result
}

func (st *callState) step(speech string) string {
	text := strings.ToLower(strings.TrimSpace(speech))
	if text == "" {
		st.reasks++
		if st.reasks > maxReasks {
			st.stage = stageDone
			return "It seems like this isn't a good time. We'll try you again later. Goodbye!"
		}
		return st.repeat()
	}
	if declineRE.MatchString(text) {
		st.result.Declined = true
		st.result.Qualified = false
		st.stage = stageDone
		return "I understand. Thanks for your time, and have a great day!"
	}

	switch st.stage {
	case stageMobile:
		if n, ok := employeeCount(text); ok {
			st.result.EmployeeCount = n
			st.haveCount = true
		}
		st.result.UsesMobile = answer(text)
		if st.result.UsesMobile == leads.MobileUnknown && st.reasks < maxReasks {
			st.reasks++
			return st.repeat()
		}
		st.reasks = 0
		if st.haveCount || st.result.UsesMobile == leads.MobileNo {
			return st.qualify()
		}
		st.stage = stageEmployees
		return "Got it. And roughly how many employees do you have working in the field?"

	case stageEmployees:
		n, ok := employeeCount(text)
		if !ok {
			if st.reasks < maxReasks {
				st.reasks++
				return st.repeat()
			}
			n = 0
		}
		st.result.EmployeeCount = n
		st.reasks = 0
		return st.qualify()

	case stageAppointment:
		date, clock := parseSlot(text, st.now)
		if date == "" {
			date = st.pendingDate
		}
		if clock == "" {
			clock = st.pendingTime
		}
		if date != "" && clock != "" {
			st.result.AppointmentSet = true
			st.result.AppointmentDate = date
			st.result.AppointmentTime = clock
			st.stage = stageDone
			return fmt.Sprintf("Perfect. I have you down for %s at %s. You'll get a confirmation shortly. Thanks, and have a great day!", spokenDate(date), spokenTime(clock))
		}
		if date != "" {
			st.pendingDate = date
			return fmt.Sprintf("Great, what time on %s works for you?", spokenDate(date))
		}
		if clock != "" {
			st.pendingTime = clock
			return "Great, and which day works best for you?"
		}
		if objectionRE.MatchString(text) || answer(text) == leads.MobileNo {
			st.objections++
			if st.objections >= maxObjections {
				st.stage = stageDone
				return "No problem. We'll reach out another time. Thanks for speaking with me, and have a great day!"
			}
			return "Totally understand. It's just a quick 15 minute call with no commitment. Would a day later this week or early next week be easier?"
		}
		st.reasks++
		if st.reasks > maxReasks+1 {
			st.stage = stageDone
			return "No problem. We'll reach out another time. Thanks for speaking with me, and have a great day!"
		}
		return st.repeat()
	}
	st.stage = stageDone
	return "Thanks again for your time. Goodbye!"
}

func (st *callState) qualify() string {
	st.result.Qualified = st.result.UsesMobile == leads.MobileYes && st.result.EmployeeCount >= st.minEmployees
	if !st.result.Qualified {
		st.stage = stageDone
		return "Thanks for your time. It sounds like we might not be the right fit right now, but I appreciate you speaking with me. Have a great day!"
	}
	st.stage = stageAppointment
	industry := strings.ToLower(st.lead.IndustryLabel())
	return fmt.Sprintf("That's great. We help %s companies like yours cut paperwork and keep field teams in sync with simple mobile tools. I'd love to set up a quick 15 minute call with one of our specialists. What day and time works best for you?", industry)
}

func (st *callState) repeat() string {
	switch st.stage {
	case stageMobile:
		return "Sorry, I didn't quite catch that. Do your crews use mobile phones or tablets while they work?"
	case stageEmployees:
		return "Sorry, about how many employees do you have? A rough number is fine."
	default:
		return "What day and time would work best for a quick call?"
	}
}

// answer classifies a yes/no reply by whichever marker comes first.
func answer(text string) string {
	if unsureRE.MatchString(text) {
		return leads.MobileUnknown
	}
	yes := yesRE.FindStringIndex(text)
	no := noRE.FindStringIndex(text)
	switch {
	case yes != nil && (no == nil || yes[0] < no[0]):
		return leads.MobileYes
	case no != nil:
		return leads.MobileNo
	default:
		return leads.MobileUnknown
	}
}

// employeeCount reads "about 50", "twenty five" or "a dozen".
func employeeCount(text string) (int, bool) {
	stripped := clockRE.ReplaceAllString(text, "")
	if m := countRE.FindStringSubmatch(stripped); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n, true
		}
	}
	total, found := 0, false
	for _, word := range strings.FieldsFunc(stripped, func(r rune) bool {
		return r == ' ' || r == '-' || r == ',' || r == '.' || r == '?' || r == '!'
	}) {
		n, ok := numberWords[word]
		if !ok {
			if found {
				break
			}
			continue
		}
		switch {
		case n == 100 && found:
			total *= 100
		case found && total >= 20 && total%10 == 0 && n < 10:
			total += n
		case found:
			return total, true
		default:
			total = n
		}
		found = true
	}
	return total, found
}

// parseSlot extracts a YYYY-MM-DD date and HH:MM time relative to now.
func parseSlot(text string, now time.Time) (string, string) {
	var date string
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case strings.Contains(text, "day after tomorrow"):
		date = today.AddDate(0, 0, 2).Format("2006-01-02")
	case strings.Contains(text, "tomorrow"):
		date = today.AddDate(0, 0, 1).Format("2006-01-02")
	case strings.Contains(text, "today"):
		date = today.Format("2006-01-02")
	default:
		if m := weekdayRE.FindStringSubmatch(text); m != nil {
			want := weekdays[strings.ToLower(m[1])]
			delta := (int(want) - int(today.Weekday()) + 7) % 7
			if delta == 0 {
				delta = 7
			}
			date = today.AddDate(0, 0, delta).Format("2006-01-02")
		} else if strings.Contains(text, "next week") {
			delta := (int(time.Monday) - int(today.Weekday()) + 7) % 7
			if delta == 0 {
				delta = 7
			}
			date = today.AddDate(0, 0, delta).Format("2006-01-02")
		}
	}

	var clock string
	if m := clockRE.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		pm := strings.EqualFold(m[3], "p")
		if pm && h < 12 {
			h += 12
		}
		if !pm && h == 12 {
			h = 0
		}
		if h < 24 && minute < 60 {
			clock = fmt.Sprintf("%02d:%02d", h, minute)
		}
	} else if noonRE.MatchString(text) {
		clock = "12:00"
	} else if m := bareAtRE.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		// business hours: "at 3" means the afternoon
		if h >= 1 && h <= 6 {
			h += 12
		}
		if h < 24 && minute < 60 {
			clock = fmt.Sprintf("%02d:%02d", h, minute)
		}
	} else if strings.Contains(text, "morning") {
		clock = "10:00"
	} else if strings.Contains(text, "afternoon") {
		clock = "14:00"
	}
	return date, clock
}

func spokenDate(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return d.Format("Monday, January 2")
}

func spokenTime(clock string) string {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return clock
	}
	return t.Format("3:04 PM")
}
