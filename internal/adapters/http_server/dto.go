package httpserver

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"valomaison/internal/domain"
)

var strict = bluemonday.StrictPolicy()

// estimateRequest is the JSON body of POST /v1/estimate. Amenity flags are
// flattened into the top-level object.
type estimateRequest struct {
	AreaCode         string   `json:"code_postal"`
	Type             string   `json:"type_bien"`
	Surface          *float64 `json:"surface"`
	Rooms            *int     `json:"nb_pieces"`
	Floor            *int     `json:"etage"`
	BuildingFloors   *int     `json:"nb_etages_immeuble"`
	Elevator         bool     `json:"ascenseur"`
	LandArea         *float64 `json:"surface_terrain"`
	ConstructionYear *int     `json:"annee_construction"`
	Condition        string   `json:"etat_general"`
	Energy           string   `json:"dpe"`
	Exposure         string   `json:"exposition"`
	View             string   `json:"vue"`
	Standing         string   `json:"standing"`
	domain.Amenities
}

func clean(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// toCriteria normalises free-text fields and fills defaults. Range and enum
// checks are left to PropertyCriteria.Validate.
func (r estimateRequest) toCriteria() (domain.PropertyCriteria, error) {
	if r.Surface == nil {
		return domain.PropertyCriteria{}, &domain.ValidationError{Field: "surface", Reason: "required"}
	}
	if r.Rooms == nil {
		return domain.PropertyCriteria{}, &domain.ValidationError{Field: "nb_pieces", Reason: "required"}
	}
	c := domain.PropertyCriteria{
		AreaCode:         clean(r.AreaCode),
		Type:             domain.PropertyType(strings.ToLower(clean(r.Type))),
		Surface:          *r.Surface,
		Rooms:            *r.Rooms,
		Floor:            r.Floor,
		BuildingFloors:   r.BuildingFloors,
		Elevator:         r.Elevator,
		LandArea:         r.LandArea,
		ConstructionYear: r.ConstructionYear,
		Condition:        domain.Condition(strings.ToLower(clean(r.Condition))),
		Energy:           domain.EnergyRating(strings.ToUpper(clean(r.Energy))),
		Exposure:         domain.Exposure(strings.ToLower(clean(r.Exposure))),
		View:             domain.View(strings.ToLower(clean(r.View))),
		Standing:         domain.Standing(strings.ToLower(clean(r.Standing))),
		Amenities:        r.Amenities,
	}
	if c.Condition == "" {
		c.Condition = domain.ConditionGood
	}
	if c.Standing == "" {
		c.Standing = domain.StandingStandard
	}
	return c, c.Validate()
}

// statsResponse is the body of GET /v1/stats/{areaCode}.
type statsResponse struct {
	AreaCode string `json:"code_postal"`
	domain.AggregatedStats
}
