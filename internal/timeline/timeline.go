// Package timeline converts claims into service intervals and flags
// overlapping pairs, separating ordinary double-booking from overlaps that
// would require the patient to travel impossibly fast.
package timeline

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
	"github.com/gyeh/claimaudit/internal/refdb"
)

const (
	// TeleportationKm is the distance above which an overlap is physically impossible.
	TeleportationKm = 5.0
	// highOverlapCount raises the engine to HIGH when no teleportation exists.
	highOverlapCount = 3
	defaultHour      = 12
)

// Detector builds timeline events and finds conflicts.
type Detector struct {
	db  *refdb.Database
	log zerolog.Logger
	now func() time.Time
}

// New returns a Detector. now supplies the date used for claims whose
// service date is missing or unparseable; nil means time.Now.
func New(db *refdb.Database, log zerolog.Logger, now func() time.Time) *Detector {
	if now == nil {
		now = time.Now
	}
	return &Detector{db: db, log: log.With().Str("engine", "timeline").Logger(), now: now}
}

// Event converts one claim into its service interval.
func (d *Detector) Event(claim model.ClaimLineItem) model.TimelineEvent {
	var day time.Time
	if parsed := normalize.ParseDate(claim.ServiceDate); parsed != nil {
		day = *parsed
	} else {
		day = d.now().UTC()
		d.log.Debug().Str("claim_id", claim.ClaimID).Str("service_date", claim.ServiceDate).Msg("service date missing or unparseable, using current date")
	}

	clock, ok := normalize.ServiceClock(claim.ServiceDate, claim.ServiceTime)
	if !ok {
		clock = defaultHour * time.Hour
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).Add(clock)

	duration := model.DefaultEventDuration
	if cat, ok := d.db.CategoryOf(claim.ProcedureCode); ok {
		duration = cat.DefaultDuration
	}

	return model.TimelineEvent{
		ClaimID:    claim.ClaimID,
		Start:      start,
		End:        start.Add(duration),
		Department: claim.Department,
		Latitude:   normalize.Coordinate(claim.Latitude),
		Longitude:  normalize.Coordinate(claim.Longitude),
	}
}

// Detect scans every unordered pair of claims for overlapping intervals.
func (d *Detector) Detect(claims []model.ClaimLineItem) model.TimelineReport {
	events := make([]model.TimelineEvent, len(claims))
	for i, c := range claims {
		events[i] = d.Event(c)
	}

	report := model.TimelineReport{Events: events, Overlaps: []model.TimelineOverlap{}}
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			if o, ok := compare(events[i], events[j]); ok {
				if o.Type == model.OverlapTeleportation {
					report.TeleportationCount++
				}
				report.Overlaps = append(report.Overlaps, o)
			}
		}
	}

	switch {
	case report.TeleportationCount > 0:
		report.RiskLevel = model.RiskCritical
	case len(report.Overlaps) >= highOverlapCount:
		report.RiskLevel = model.RiskHigh
	case len(report.Overlaps) >= 1:
		report.RiskLevel = model.RiskMedium
	default:
		report.RiskLevel = model.RiskLow
	}

	d.log.Info().
		Int("events", len(events)).
		Int("overlaps", len(report.Overlaps)).
		Int("teleportations", report.TeleportationCount).
		Str("risk_level", string(report.RiskLevel)).
		Msg("timeline scan complete")
	return report
}

// OverlapMinutes returns the intersection length of two events; zero or
// negative means the events do not overlap.
func OverlapMinutes(a, b model.TimelineEvent) float64 {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	return end.Sub(start).Minutes()
}

func compare(a, b model.TimelineEvent) (model.TimelineOverlap, bool) {
	minutes := OverlapMinutes(a, b)
	if minutes <= 0 {
		return model.TimelineOverlap{}, false
	}

	o := model.TimelineOverlap{
		ClaimIDs:       [2]string{a.ClaimID, b.ClaimID},
		Departments:    [2]string{a.Department, b.Department},
		Type:           model.OverlapPlain,
		OverlapMinutes: minutes,
	}

	sameDept := normalize.Text(a.Department) == normalize.Text(b.Department)
	hasCoords := hasFiniteCoords(a) && hasFiniteCoords(b)

	switch {
	case !sameDept && hasCoords:
		dist := Haversine(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
		o.DistanceKm = &dist
		if dist > TeleportationKm {
			elapsed := math.Abs(b.Start.Sub(a.Start).Hours())
			speed := model.Speed(RequiredSpeed(dist, elapsed))
			o.Type = model.OverlapTeleportation
			o.RequiredSpeedKmh = &speed
			o.Explanation = teleportExplanation(a, b, minutes, dist, float64(speed))
		} else {
			o.Explanation = fmt.Sprintf("Claims %s (%s) and %s (%s) overlap by %.0f minutes at locations %.2f km apart.",
				a.ClaimID, a.Department, b.ClaimID, b.Department, minutes, dist)
		}
	case !sameDept:
		o.Explanation = fmt.Sprintf("Claims %s (%s) and %s (%s) overlap by %.0f minutes in different departments; location data is unavailable to assess travel.",
			a.ClaimID, a.Department, b.ClaimID, b.Department, minutes)
	default:
		o.Explanation = fmt.Sprintf("Claims %s and %s were both billed in %s with %.0f minutes of overlap; possible duplicate billing.",
			a.ClaimID, b.ClaimID, deptLabel(a.Department), minutes)
	}
	return o, true
}

// hasFiniteCoords reports whether an event carries finite coordinates.
func hasFiniteCoords(e model.TimelineEvent) bool {
	return normalize.Coordinate(e.Latitude) != nil && normalize.Coordinate(e.Longitude) != nil
}

func teleportExplanation(a, b model.TimelineEvent, minutes, dist, speed float64) string {
	if math.IsInf(speed, 1) {
		return fmt.Sprintf("Impossible timeline: claims %s (%s) and %s (%s) start at the same moment %.2f km apart and overlap by %.0f minutes.",
			a.ClaimID, a.Department, b.ClaimID, b.Department, dist, minutes)
	}
	return fmt.Sprintf("Impossible timeline: claims %s (%s) and %s (%s) overlap by %.0f minutes while %.2f km apart; the patient would need to travel at %.1f km/h.",
		a.ClaimID, a.Department, b.ClaimID, b.Department, minutes, dist, speed)
}

func deptLabel(dept string) string {
	if dept == "" {
		return "an unspecified department"
	}
	return dept
}
