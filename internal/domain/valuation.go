package domain

// Factor names one adjustment of the attribute model.
type Factor string

const (
	FactorFloor           Factor = "etage"
	FactorElevator        Factor = "ascenseur"
	FactorCondition       Factor = "etat"
	FactorBalconyTerrace  Factor = "balcon_terrasse"
	FactorParking         Factor = "parking"
	FactorCellar          Factor = "cave"
	FactorGarden          Factor = "jardin"
	FactorVeranda         Factor = "veranda"
	FactorOutbuildings    Factor = "dependances"
	FactorEquippedKitchen Factor = "cuisine_equipee"
	FactorDoubleGlazing   Factor = "double_vitrage"
	FactorAirConditioning Factor = "climatisation"
	FactorFireplace       Factor = "cheminee"
	FactorParquet         Factor = "parquet"
	FactorFiber           Factor = "fibre"
	FactorAlarm           Factor = "alarme"
	FactorDigicode        Factor = "digicode"
	FactorCaretaker       Factor = "gardien"
	FactorAutoGate        Factor = "portail_auto"
	FactorPool            Factor = "piscine"
	FactorVegetableGarden Factor = "potager"
	FactorSpa             Factor = "spa"
	FactorTennisCourt     Factor = "terrain_tennis"
	FactorGardenShed      Factor = "abri_jardin"
	FactorAutoIrrigation  Factor = "arrosage_auto"
	FactorEnergy          Factor = "dpe"
	FactorExposure        Factor = "exposition"
	FactorView            Factor = "vue"
	FactorStanding        Factor = "standing"
)

// AdjustmentSet maps each applied factor to its fractional price correction.
type AdjustmentSet map[Factor]float64

// Total sums the fractions. Adjustments are additive, never compounded.
func (a AdjustmentSet) Total() float64 {
	var t float64
	for _, v := range a {
		t += v
	}
	return t
}

type Confidence string

const (
	ConfidenceVeryLow Confidence = "very_low"
	ConfidenceLow     Confidence = "low"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceHigh    Confidence = "high"
)

type AggregationInfo struct {
	AreasUsed  []string `json:"areas_used"`
	RadiusKm   int      `json:"radius_km"`
	Aggregated bool     `json:"is_aggregated"`
	Partial    bool     `json:"partial,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// ValuationResult is the outcome of one estimate. When Error is set the
// estimate fields are nil and Message explains why.
type ValuationResult struct {
	Error                 bool            `json:"error"`
	Message               string          `json:"message,omitempty"`
	Low                   *float64        `json:"low"`
	Mid                   *float64        `json:"mid"`
	High                  *float64        `json:"high"`
	ReferencePricePerArea *float64        `json:"reference_price_per_area,omitempty"`
	AdjustedPricePerArea  *float64        `json:"adjusted_price_per_area,omitempty"`
	SurfaceCoefficient    float64         `json:"surface_coefficient,omitempty"`
	LandValue             *float64        `json:"land_value"`
	ReferenceCount        int             `json:"reference_count"`
	Confidence            Confidence      `json:"confidence,omitempty"`
	TotalAdjustment       float64         `json:"total_adjustment"`
	Adjustments           AdjustmentSet   `json:"adjustments,omitempty"`
	Aggregation           AggregationInfo `json:"aggregation"`
}
