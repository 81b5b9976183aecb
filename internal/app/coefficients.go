package app

import (
	"valomaison/internal/domain"
)

func apartmentOnly(c domain.PropertyCriteria) bool { return c.IsApartment() }
func houseOnly(c domain.PropertyCriteria) bool     { return c.IsHouse() }

func floorOf(c domain.PropertyCriteria) (int, bool) {
	if c.Floor == nil {
		return 0, false
	}
	return *c.Floor, true
}

func isTopFloor(c domain.PropertyCriteria) bool {
	return c.Floor != nil && c.BuildingFloors != nil && *c.Floor == *c.BuildingFloors
}

func amenity(f func(domain.Amenities) bool) func(domain.PropertyCriteria) bool {
	return func(c domain.PropertyCriteria) bool { return f(c.Amenities) }
}

func presence(name domain.Factor, v float64, has func(domain.Amenities) bool, when Gate) PresenceRule {
	return PresenceRule{Name: name, Has: amenity(has), Present: v, When: when}
}

// DefaultAdjustmentModel is the market coefficient table.
func DefaultAdjustmentModel() AdjustmentModel {
	return NewAdjustmentModel(
		ThresholdRule{
			Name:  domain.FactorFloor,
			Value: floorOf,
			Steps: []Step{
				{AtLeast: 0, Value: -0.05},
				{AtLeast: 1, Value: -0.02},
				{AtLeast: 2, Value: 0},
				{AtLeast: 3, Value: 0.02},
				{AtLeast: 4, Value: 0.03},
				{AtLeast: 5, Value: 0.04},
			},
			Override:      isTopFloor,
			OverrideValue: 0.06,
			When:          apartmentOnly,
		},
		PresenceRule{
			Name:        domain.FactorElevator,
			Has:         func(c domain.PropertyCriteria) bool { return c.Elevator },
			Present:     0.03,
			Absent:      -0.02,
			ScoreAbsent: true,
			When: func(c domain.PropertyCriteria) bool {
				return c.IsApartment() && c.Floor != nil && *c.Floor > 2
			},
		},
		EnumRule{
			Name: domain.FactorCondition,
			Pick: func(c domain.PropertyCriteria) string { return string(c.Condition) },
			Values: map[string]float64{
				string(domain.ConditionToRenovate): -0.15,
				string(domain.ConditionFair):       -0.05,
				string(domain.ConditionGood):       0,
				string(domain.ConditionVeryGood):   0.05,
				string(domain.ConditionNew):        0.15,
			},
		},

		presence(domain.FactorBalconyTerrace, 0.04, func(a domain.Amenities) bool { return a.BalconyTerrace }, nil),
		presence(domain.FactorParking, 0.05, func(a domain.Amenities) bool { return a.Parking }, nil),
		presence(domain.FactorCellar, 0.02, func(a domain.Amenities) bool { return a.Cellar }, nil),
		presence(domain.FactorGarden, 0.08, func(a domain.Amenities) bool { return a.Garden }, houseOnly),
		presence(domain.FactorVeranda, 0.05, func(a domain.Amenities) bool { return a.Veranda }, houseOnly),
		presence(domain.FactorOutbuildings, 0.03, func(a domain.Amenities) bool { return a.Outbuildings }, houseOnly),

		presence(domain.FactorEquippedKitchen, 0.03, func(a domain.Amenities) bool { return a.EquippedKitchen }, nil),
		presence(domain.FactorDoubleGlazing, 0.02, func(a domain.Amenities) bool { return a.DoubleGlazing }, nil),
		presence(domain.FactorAirConditioning, 0.04, func(a domain.Amenities) bool { return a.AirConditioning }, nil),
		presence(domain.FactorFireplace, 0.02, func(a domain.Amenities) bool { return a.Fireplace }, nil),
		presence(domain.FactorParquet, 0.02, func(a domain.Amenities) bool { return a.Parquet }, nil),
		presence(domain.FactorFiber, 0.01, func(a domain.Amenities) bool { return a.Fiber }, nil),

		presence(domain.FactorAlarm, 0.02, func(a domain.Amenities) bool { return a.Alarm }, nil),
		presence(domain.FactorDigicode, 0.01, func(a domain.Amenities) bool { return a.Digicode }, nil),
		presence(domain.FactorCaretaker, 0.03, func(a domain.Amenities) bool { return a.Caretaker }, nil),
		presence(domain.FactorAutoGate, 0.02, func(a domain.Amenities) bool { return a.AutoGate }, houseOnly),

		presence(domain.FactorPool, 0.12, func(a domain.Amenities) bool { return a.Pool }, houseOnly),
		presence(domain.FactorVegetableGarden, 0.01, func(a domain.Amenities) bool { return a.VegetableGarden }, houseOnly),
		presence(domain.FactorSpa, 0.05, func(a domain.Amenities) bool { return a.Spa }, houseOnly),
		presence(domain.FactorTennisCourt, 0.08, func(a domain.Amenities) bool { return a.TennisCourt }, houseOnly),
		presence(domain.FactorGardenShed, 0.01, func(a domain.Amenities) bool { return a.GardenShed }, houseOnly),
		presence(domain.FactorAutoIrrigation, 0.01, func(a domain.Amenities) bool { return a.AutoIrrigation }, houseOnly),

		EnumRule{
			Name: domain.FactorEnergy,
			Pick: func(c domain.PropertyCriteria) string { return string(c.Energy) },
			Values: map[string]float64{
				string(domain.EnergyA): 0.10,
				string(domain.EnergyB): 0.06,
				string(domain.EnergyC): 0.03,
				string(domain.EnergyD): 0,
				string(domain.EnergyE): -0.05,
				string(domain.EnergyF): -0.12,
				string(domain.EnergyG): -0.20,
			},
		},
		EnumRule{
			Name: domain.FactorExposure,
			Pick: func(c domain.PropertyCriteria) string { return string(c.Exposure) },
			Values: map[string]float64{
				string(domain.ExposureNorth): -0.03,
				string(domain.ExposureEast):  0,
				string(domain.ExposureWest):  0.01,
				string(domain.ExposureSouth): 0.04,
			},
		},
		EnumRule{
			Name: domain.FactorView,
			Pick: func(c domain.PropertyCriteria) string { return string(c.View) },
			Values: map[string]float64{
				string(domain.ViewOverlooked):  -0.05,
				string(domain.ViewOpen):        0.03,
				string(domain.ViewExceptional): 0.10,
			},
		},
		EnumRule{
			Name: domain.FactorStanding,
			Pick: func(c domain.PropertyCriteria) string { return string(c.Standing) },
			Values: map[string]float64{
				string(domain.StandingEconomy):  -0.10,
				string(domain.StandingStandard): 0,
				string(domain.StandingHigh):     0.15,
				string(domain.StandingLuxury):   0.30,
			},
		},
	)
}

// surfaceSteps: surfaces strictly below Below get Coef.
var surfaceSteps = []struct {
	Below float64
	Coef  float64
}{
	{30, 1.10},
	{50, 1.05},
	{80, 1.00},
	{120, 0.97},
	{200, 0.94},
}

const largestSurfaceCoef = 0.90

// SurfaceCoefficient is the price-per-area multiplier for a declared surface.
// It never increases as the surface grows.
func SurfaceCoefficient(surface float64) float64 {
	for _, s := range surfaceSteps {
		if surface < s.Below {
			return s.Coef
		}
	}
	return largestSurfaceCoef
}

type LandZone string

const (
	ZoneUrban     LandZone = "urbain"
	ZonePeriUrban LandZone = "periurbain"
	ZoneRural     LandZone = "rural"
)

var landPricePerArea = map[LandZone]float64{
	ZoneUrban:     150,
	ZonePeriUrban: 80,
	ZoneRural:     30,
}

var (
	urbanDepartments     = map[string]bool{"75": true, "92": true, "93": true, "94": true}
	periUrbanDepartments = map[string]bool{
		"77": true, "78": true, "91": true, "95": true, "69": true,
		"13": true, "31": true, "33": true, "59": true, "44": true,
	}
)

// ZoneFor classifies an area from its two-digit department prefix.
func ZoneFor(areaCode string) LandZone {
	if len(areaCode) < 2 {
		return ZoneRural
	}
	dept := areaCode[:2]
	switch {
	case urbanDepartments[dept]:
		return ZoneUrban
	case periUrbanDepartments[dept]:
		return ZonePeriUrban
	default:
		return ZoneRural
	}
}

// Land beyond each breakpoint counts for less: the first 500 units in full,
// the next 500 at half, everything past 1000 at 0.3.
var landBands = []struct {
	Upto   float64
	Weight float64
}{
	{500, 1.0},
	{1000, 0.5},
}

const landTailWeight = 0.3

// EffectiveLandArea applies the diminishing marginal value of large plots.
func EffectiveLandArea(area float64) float64 {
	if area <= 0 {
		return 0
	}
	var eff, lower float64
	for _, b := range landBands {
		if area <= b.Upto {
			return eff + (area-lower)*b.Weight
		}
		eff += (b.Upto - lower) * b.Weight
		lower = b.Upto
	}
	return eff + (area-lower)*landTailWeight
}

// LandValue prices a plot in the zone of areaCode.
func LandValue(landArea float64, areaCode string) float64 {
	return EffectiveLandArea(landArea) * landPricePerArea[ZoneFor(areaCode)]
}
