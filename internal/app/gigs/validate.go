package gigs

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"agentlyou/internal/app/places"
	"agentlyou/shared/go/models"
)

const (
	MsgStartInPast        = "Start date and time must be in the future."
	MsgEndBeforeStart     = "End date and time must come after start date and time."
	MsgVenueOnVirtual     = "Venue is not appropriate for virtual gigs."
	MsgVenueRequired      = "Venue is required for physical gigs."
	MsgRequired           = "This field is required."
	MsgBlank              = "This field may not be blank."
	MsgStatusAtCreate     = "Status must be either 'draft' or 'published' when creating a gig."
	MsgCompensationNotPos = "Ensure this value is greater than 0."
	MsgCompensationPlaces = "Ensure that there are no more than 4 decimal places."
	MsgCompensationWhole  = "Ensure that there are no more than 15 digits before the decimal point."
)

const (
	titleMin       = 3
	titleMax       = 100
	descriptionMin = 50
	labelMax       = 100
	placeFieldMax  = 255
	defaultTZ      = "UTC"
)

var maxCompensation = decimal.New(1, 15)

// Fields is the complete, merged set of writable gig attributes.
type Fields struct {
	Title         string
	Description   string
	Labels        []string
	LocationType  models.LocationType
	Venue         *models.VenueInput
	StartDatetime time.Time
	EndDatetime   time.Time
	Timezone      string
	Compensation  decimal.Decimal
}

// ValidateSchedule checks that the gig starts strictly after now and ends after it starts.
func ValidateSchedule(start, end, now time.Time) error {
	errs := &FieldValidationError{}
	if !start.After(now) {
		errs.Add("start_datetime", MsgStartInPast)
	}
	if !end.After(start) {
		errs.Add("end_datetime", MsgEndBeforeStart)
	}
	return errs.Err()
}

// ValidateLocation checks that virtual gigs have no venue and physical gigs have one.
func ValidateLocation(locationType models.LocationType, hasVenue bool) error {
	errs := &FieldValidationError{}
	switch locationType {
	case models.LocationTypeVirtual:
		if hasVenue {
			errs.Add("venue", MsgVenueOnVirtual)
		}
	case models.LocationTypePhysical:
		if !hasVenue {
			errs.Add("venue", MsgVenueRequired)
		}
	default:
		errs.Add("location_type", fmt.Sprintf("%q is not a valid choice.", string(locationType)))
	}
	return errs.Err()
}

// ValidateFields checks the per-field contract: lengths, timezone, compensation
// and venue sub-fields. It does not look at the clock.
func ValidateFields(f Fields) error {
	errs := &FieldValidationError{}

	checkLength(errs, "title", f.Title, titleMin, titleMax)
	checkLength(errs, "description", f.Description, descriptionMin, 0)

	for _, label := range f.Labels {
		if utf8.RuneCountInString(label) > labelMax {
			errs.Add("labels", fmt.Sprintf("Ensure each label has no more than %d characters.", labelMax))
			break
		}
	}

	if f.Timezone == "" || f.Timezone == "Local" {
		errs.Add("timezone", fmt.Sprintf("%q is not a valid timezone.", f.Timezone))
	} else if _, err := time.LoadLocation(f.Timezone); err != nil {
		errs.Add("timezone", fmt.Sprintf("%q is not a valid timezone.", f.Timezone))
	}

	switch {
	case f.Compensation.Sign() <= 0:
		errs.Add("compensation", MsgCompensationNotPos)
	case !f.Compensation.Equal(f.Compensation.Truncate(4)):
		errs.Add("compensation", MsgCompensationPlaces)
	case f.Compensation.Cmp(maxCompensation) >= 0:
		errs.Add("compensation", MsgCompensationWhole)
	}

	if f.Venue != nil {
		v := f.Venue
		checkPlaceField(errs, "venue.place_id", v.PlaceID, true)
		checkPlaceField(errs, "venue.name", v.Name, true)
		checkPlaceField(errs, "venue.location.city", v.Location.City, true)
		checkPlaceField(errs, "venue.location.state_region", v.Location.StateRegion, false)
		checkPlaceField(errs, "venue.location.country", v.Location.Country, true)
	}

	return errs.Err()
}

// Validate runs every check against the merged fields at time now.
func Validate(f Fields, now time.Time) error {
	errs := &FieldValidationError{}
	errs.Merge(ValidateFields(f))
	errs.Merge(ValidateSchedule(f.StartDatetime, f.EndDatetime, now))
	errs.Merge(ValidateLocation(f.LocationType, f.Venue != nil))
	return errs.Err()
}

// NormalizeLabels trims labels, drops blanks and duplicates, and sorts the rest.
func NormalizeLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = places.NormalizeText(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func checkLength(errs *FieldValidationError, field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0:
		errs.Add(field, MsgBlank)
	case n < min:
		errs.Add(field, fmt.Sprintf("Ensure this field has at least %d characters.", min))
	case max > 0 && n > max:
		errs.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
	}
}

func checkPlaceField(errs *FieldValidationError, field, value string, required bool) {
	if required && value == "" {
		errs.Add(field, MsgRequired)
		return
	}
	if utf8.RuneCountInString(value) > placeFieldMax {
		errs.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", placeFieldMax))
	}
}

// fieldsFromGig returns the stored attributes of g in Fields form.
func fieldsFromGig(g *models.Gig) Fields {
	f := Fields{
		Title:         g.Title,
		Description:   g.Description,
		Labels:        append([]string(nil), g.Labels...),
		LocationType:  g.LocationType,
		StartDatetime: g.StartDatetime,
		EndDatetime:   g.EndDatetime,
		Timezone:      g.Timezone,
		Compensation:  g.Compensation,
	}
	if g.Venue != nil {
		in := g.Venue.Input()
		f.Venue = &in
	}
	return f
}

// apply overlays every field present in p onto f. Status is never read here.
func (f *Fields) apply(p models.GigPayload) {
	if p.Title.Set {
		f.Title = strings.TrimSpace(p.Title.Value)
	}
	if p.Description.Set {
		f.Description = strings.TrimSpace(p.Description.Value)
	}
	if p.Labels.Set {
		f.Labels = NormalizeLabels(p.Labels.Value)
	}
	if p.LocationType.Set {
		f.LocationType = p.LocationType.Value
	}
	if p.Venue.Set {
		f.Venue = nil
		if p.Venue.Value != nil {
			v := places.NormalizeVenue(*p.Venue.Value)
			f.Venue = &v
		}
	}
	if p.StartDatetime.Set {
		f.StartDatetime = p.StartDatetime.Value
	}
	if p.EndDatetime.Set {
		f.EndDatetime = p.EndDatetime.Value
	}
	if p.Timezone.Set {
		f.Timezone = strings.TrimSpace(p.Timezone.Value)
	}
	if p.Compensation.Set {
		f.Compensation = p.Compensation.Value
	}
}

// requireForCreate reports fields that a create payload must carry.
func requireForCreate(p models.GigPayload) *FieldValidationError {
	errs := &FieldValidationError{}
	required := []struct {
		name string
		set  bool
	}{
		{"title", p.Title.Set},
		{"description", p.Description.Set},
		{"location_type", p.LocationType.Set},
		{"start_datetime", p.StartDatetime.Set && !p.StartDatetime.Value.IsZero()},
		{"end_datetime", p.EndDatetime.Set && !p.EndDatetime.Value.IsZero()},
		{"compensation", p.Compensation.Set},
	}
	for _, r := range required {
		if !r.set {
			errs.Add(r.name, MsgRequired)
		}
	}
	return errs
}
