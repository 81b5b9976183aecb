package domain

import (
	"fmt"
	"regexp"
)

type Condition string

const (
	ConditionToRenovate Condition = "a_renover"
	ConditionFair       Condition = "correct"
	ConditionGood       Condition = "bon"
	ConditionVeryGood   Condition = "tres_bon"
	ConditionNew        Condition = "neuf"
)

type EnergyRating string

const (
	EnergyA EnergyRating = "A"
	EnergyB EnergyRating = "B"
	EnergyC EnergyRating = "C"
	EnergyD EnergyRating = "D"
	EnergyE EnergyRating = "E"
	EnergyF EnergyRating = "F"
	EnergyG EnergyRating = "G"
)

type Exposure string

const (
	ExposureNorth Exposure = "nord"
	ExposureEast  Exposure = "est"
	ExposureWest  Exposure = "ouest"
	ExposureSouth Exposure = "sud"
)

type View string

const (
	ViewOverlooked  View = "vis_a_vis"
	ViewOpen        View = "degagee"
	ViewExceptional View = "exceptionnelle"
)

type Standing string

const (
	StandingEconomy  Standing = "economique"
	StandingStandard Standing = "standard"
	StandingHigh     Standing = "standing"
	StandingLuxury   Standing = "luxe"
)

// Amenities is the closed set of yes/no features a property can declare.
type Amenities struct {
	BalconyTerrace  bool `json:"balcon_terrasse"`
	Parking         bool `json:"parking"`
	Cellar          bool `json:"cave"`
	Garden          bool `json:"jardin"`
	Veranda         bool `json:"veranda"`
	Outbuildings    bool `json:"dependances"`
	EquippedKitchen bool `json:"cuisine_equipee"`
	DoubleGlazing   bool `json:"double_vitrage"`
	AirConditioning bool `json:"climatisation"`
	Fireplace       bool `json:"cheminee"`
	Parquet         bool `json:"parquet"`
	Fiber           bool `json:"fibre"`
	Alarm           bool `json:"alarme"`
	Digicode        bool `json:"digicode"`
	Caretaker       bool `json:"gardien"`
	AutoGate        bool `json:"portail_auto"`
	Pool            bool `json:"piscine"`
	VegetableGarden bool `json:"potager"`
	Spa             bool `json:"spa"`
	TennisCourt     bool `json:"terrain_tennis"`
	GardenShed      bool `json:"abri_jardin"`
	AutoIrrigation  bool `json:"arrosage_auto"`
}

// PropertyCriteria is the validated description of the property to value.
// Optional numeric attributes are nil when undeclared; optional categories are
// the empty string.
type PropertyCriteria struct {
	AreaCode         string
	Type             PropertyType
	Surface          float64
	Rooms            int
	Floor            *int
	BuildingFloors   *int
	Elevator         bool
	LandArea         *float64
	ConstructionYear *int
	Condition        Condition
	Energy           EnergyRating
	Exposure         Exposure
	View             View
	Standing         Standing
	Amenities        Amenities
}

func (c PropertyCriteria) IsHouse() bool     { return c.Type == House }
func (c PropertyCriteria) IsApartment() bool { return c.Type == Apartment }

var areaCodeRe = regexp.MustCompile(`^[0-9]{5}$`)

// Validate checks every field against the accepted ranges and categories.
// The first offending field is reported as a *ValidationError.
func (c PropertyCriteria) Validate() error {
	if !areaCodeRe.MatchString(c.AreaCode) {
		return &ValidationError{Field: "code_postal", Reason: "must be 5 digits"}
	}
	if c.Type != Apartment && c.Type != House {
		return &ValidationError{Field: "type_bien", Reason: "must be appartement or maison"}
	}
	if c.Surface < 9 || c.Surface > 10000 {
		return &ValidationError{Field: "surface", Reason: "must be between 9 and 10000"}
	}
	if c.Rooms < 1 || c.Rooms > 50 {
		return &ValidationError{Field: "nb_pieces", Reason: "must be between 1 and 50"}
	}
	if err := intRange("etage", c.Floor, 0, 100); err != nil {
		return err
	}
	if err := intRange("nb_etages_immeuble", c.BuildingFloors, 1, 100); err != nil {
		return err
	}
	if err := intRange("annee_construction", c.ConstructionYear, 1800, 2030); err != nil {
		return err
	}
	if c.LandArea != nil && (*c.LandArea < 0 || *c.LandArea > 1_000_000) {
		return &ValidationError{Field: "surface_terrain", Reason: "must be between 0 and 1000000"}
	}
	if !oneOf(c.Condition, ConditionToRenovate, ConditionFair, ConditionGood, ConditionVeryGood, ConditionNew) {
		return &ValidationError{Field: "etat_general", Reason: fmt.Sprintf("unknown value %q", c.Condition)}
	}
	if c.Energy != "" && !oneOf(c.Energy, EnergyA, EnergyB, EnergyC, EnergyD, EnergyE, EnergyF, EnergyG) {
		return &ValidationError{Field: "dpe", Reason: fmt.Sprintf("unknown value %q", c.Energy)}
	}
	if c.Exposure != "" && !oneOf(c.Exposure, ExposureNorth, ExposureEast, ExposureWest, ExposureSouth) {
		return &ValidationError{Field: "exposition", Reason: fmt.Sprintf("unknown value %q", c.Exposure)}
	}
	if c.View != "" && !oneOf(c.View, ViewOverlooked, ViewOpen, ViewExceptional) {
		return &ValidationError{Field: "vue", Reason: fmt.Sprintf("unknown value %q", c.View)}
	}
	if !oneOf(c.Standing, StandingEconomy, StandingStandard, StandingHigh, StandingLuxury) {
		return &ValidationError{Field: "standing", Reason: fmt.Sprintf("unknown value %q", c.Standing)}
	}
	return nil
}

func intRange(field string, v *int, lo, hi int) error {
	if v == nil {
		return nil
	}
	if *v < lo || *v > hi {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be between %d and %d", lo, hi)}
	}
	return nil
}

func oneOf[T comparable](v T, allowed ...T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
