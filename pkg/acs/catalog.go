package acs

// Friendly field names produced by the normalizer.
const (
	FieldGeographyName         = "geography_name"
	FieldTotalPopulation       = "total_population"
	FieldMedianIncome          = "median_household_income"
	FieldTotalHouseholds       = "total_households"
	FieldHousingUnits          = "housing_units"
	FieldOwnerOccupied         = "owner_occupied_housing_units"
	FieldRenterOccupied        = "renter_occupied_housing_units"
	FieldVacant                = "vacant_housing_units"
	FieldOwnerOccupiedPercent  = "owner_occupied_percent"
	FieldRenterOccupiedPercent = "renter_occupied_percent"
	FieldVacantPercent         = "vacant_housing_units_percent"
)

// Variable pairs an upstream variable code with its friendly field name.
type Variable struct {
	Code  string `json:"code" yaml:"code"`
	Field string `json:"field" yaml:"field"`
}

// catalog is the fixed variable catalog, in the order variables are requested
// by default.
var catalog = []Variable{
	{Code: "NAME", Field: FieldGeographyName},
	{Code: "B01001_001E", Field: FieldTotalPopulation},
	{Code: "B19013_001E", Field: FieldMedianIncome},
	{Code: "B11011_001E", Field: FieldTotalHouseholds},
	{Code: "B25001_001E", Field: FieldHousingUnits},
	{Code: "B25075_001E", Field: FieldOwnerOccupied},
	{Code: "B25003_003E", Field: FieldRenterOccupied},
	{Code: "B25002_003E", Field: FieldVacant},
}

var catalogIndex = func() map[string]string {
	m := make(map[string]string, len(catalog))
	for _, v := range catalog {
		m[v.Code] = v.Field
	}
	return m
}()

// geographyAliases maps friendly geography type names to the wire keys the
// API expects. The values are already in wire form ('+' for spaces).
var geographyAliases = map[string]string{
	"census_tract":                     "tract",
	"zcta":                             "zip+code+tabulation+area",
	"state_legislative_district_upper": "state+legislative+district+(upper+chamber)",
	"state_legislative_district_lower": "state+legislative+district+(lower+chamber)",
	"congressional_district":           "congressional+district",
	"county_subdivision":               "county+subdivision",
}

// Catalog returns a copy of the variable catalog in request order.
func Catalog() []Variable {
	out := make([]Variable, len(catalog))
	copy(out, catalog)
	return out
}

// DefaultVariables returns the catalog's variable codes in request order.
func DefaultVariables() []string {
	out := make([]string, len(catalog))
	for i, v := range catalog {
		out[i] = v.Code
	}
	return out
}

// FieldName returns the friendly name for a variable code. Codes outside the
// catalog (geography identifier columns such as "state" or "county") are
// returned unchanged.
func FieldName(code string) string {
	if f, ok := catalogIndex[code]; ok {
		return f
	}
	return code
}

// ResolveGeography maps a friendly geography type to its wire key. Unknown
// names pass through unchanged; the API accepts many names verbatim
// ("county", "place", "state").
func ResolveGeography(name string) string {
	if key, ok := geographyAliases[name]; ok {
		return key
	}
	return name
}

// GeographyAliases returns a copy of the alias table.
func GeographyAliases() map[string]string {
	out := make(map[string]string, len(geographyAliases))
	for k, v := range geographyAliases {
		out[k] = v
	}
	return out
}
