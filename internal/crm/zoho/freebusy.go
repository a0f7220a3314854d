package zoho

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	slotLength = 30 * time.Minute
	dayStart   = 9
	dayEnd     = 17
)

// Period is a busy interval on the calendar.
type Period struct {
	Start time.Time
	End   time.Time
}

type currentUserResponse struct {
	Users []struct {
		ID string `json:"id"`
	} `json:"users"`
}

type freeBusyResponse struct {
	Users []struct {
		Busy []struct {
			StartTime string `json:"startTime"`
			EndTime   string `json:"endTime"`
		} `json:"busy"`
	} `json:"users"`
}

// FreeSlots returns the 30 minute slots between 09:00 and 17:00 on date
// (YYYY-MM-DD) that do not overlap a busy period of the current CRM user.
func (c *Client) FreeSlots(ctx context.Context, date string) ([]string, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("zoho: invalid date %q: %w", date, err)
	}

	ctx, span := tracer.Start(ctx, "crm.zoho.free_slots")
	defer span.End()

	var user currentUserResponse
	if err := c.do(ctx, http.MethodGet, "/crm/v2/users", url.Values{"type": {"CurrentUser"}}, nil, &user); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(user.Users) == 0 || user.Users[0].ID == "" {
		return nil, fmt.Errorf("zoho: current user not found")
	}

	q := url.Values{}
	q.Set("users", user.Users[0].ID)
	q.Set("starttime", day.Format("2006-01-02T15:04:05")+"Z")
	q.Set("endtime", day.Add(23*time.Hour+59*time.Minute+59*time.Second).Format("2006-01-02T15:04:05")+"Z")

	var fb freeBusyResponse
	if err := c.do(ctx, http.MethodGet, "/calendar/v1/freebusy", q, nil, &fb); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var busy []Period
	if len(fb.Users) > 0 {
		for _, b := range fb.Users[0].Busy {
			start, err := parseZohoTime(b.StartTime)
			if err != nil {
				return nil, err
			}
			end, err := parseZohoTime(b.EndTime)
			if err != nil {
				return nil, err
			}
			busy = append(busy, Period{Start: start, End: end})
		}
	}
	return OpenSlots(day, busy), nil
}

// OpenSlots lists "HH:MM" starts of 30 minute slots inside business hours on
// day that overlap none of busy.
func OpenSlots(day time.Time, busy []Period) []string {
	slots := []string{}
	start := time.Date(day.Year(), day.Month(), day.Day(), dayStart, 0, 0, 0, time.UTC)
	end := time.Date(day.Year(), day.Month(), day.Day(), dayEnd, 0, 0, 0, time.UTC)
	for cur := start; cur.Before(end); cur = cur.Add(slotLength) {
		slotEnd := cur.Add(slotLength)
		free := true
		for _, p := range busy {
			if slotEnd.After(p.Start) && cur.Before(p.End) {
				free = false
				break
			}
		}
		if free {
			slots = append(slots, cur.Format("15:04"))
		}
	}
	return slots
}

// parseZohoTime reads timestamps as wall-clock UTC, dropping any zone suffix.
func parseZohoTime(v string) (time.Time, error) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "Z")
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.000", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("zoho: unparseable time %q", v)
}
