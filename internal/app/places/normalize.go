package places

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"agentlyou/shared/go/models"
)

// NormalizeText trims, collapses runs of whitespace to one space and converts
// to Unicode NFC. Case is preserved.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// NormalizeLocation applies NormalizeText to every component of the triple.
func NormalizeLocation(in models.LocationInput) models.LocationInput {
	return models.LocationInput{
		City:        NormalizeText(in.City),
		StateRegion: NormalizeText(in.StateRegion),
		Country:     NormalizeText(in.Country),
	}
}

// NormalizeVenue normalizes the venue and its nested location. The address
// keeps its line breaks.
func NormalizeVenue(in models.VenueInput) models.VenueInput {
	return models.VenueInput{
		PlaceID:  strings.TrimSpace(in.PlaceID),
		Name:     NormalizeText(in.Name),
		Address:  norm.NFC.String(strings.TrimSpace(in.Address)),
		Location: NormalizeLocation(in.Location),
	}
}
