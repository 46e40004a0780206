package acs

import (
	"context"
)

// Wire keys and response column names for the convenience operations.
const (
	geoZCTA          = "zip+code+tabulation+area"
	geoCongressional = "congressional+district"
	geoCounty        = "county"
	geoSubdivision   = "county+subdivision"
	geoPlace         = "place"
	geoTract         = "tract"
	geoSLDUpper      = "state+legislative+district+(upper+chamber)"
	geoSLDLower      = "state+legislative+district+(lower+chamber)"

	// The API echoes geography columns with spaces rather than '+'.
	columnCounty      = "county"
	columnTract       = "tract"
	columnSubdivision = "county subdivision"
)

func (c *Client) getGeography(ctx context.Context, state, geoType string, ids []string) (*Result, error) {
	return c.GetData(ctx, Query{State: state, GeographyType: geoType, Geography: ids})
}

// GetState returns state-level data.
func (c *Client) GetState(ctx context.Context, state string) (*Result, error) {
	return c.GetData(ctx, Query{State: state, GeographyType: stateGeography})
}

// GetZCTA returns data for zip code tabulation areas in a state. No ids means
// all of them.
func (c *Client) GetZCTA(ctx context.Context, state string, zcta ...string) (*Result, error) {
	return c.getGeography(ctx, state, geoZCTA, zcta)
}

// GetCongressionalDistricts returns data for congressional districts in a state.
func (c *Client) GetCongressionalDistricts(ctx context.Context, state string, district ...string) (*Result, error) {
	return c.getGeography(ctx, state, geoCongressional, district)
}

// GetCounties returns data for counties in a state.
func (c *Client) GetCounties(ctx context.Context, state string, county ...string) (*Result, error) {
	return c.getGeography(ctx, state, geoCounty, county)
}

// GetPlaces returns data for places (cities, towns, CDPs) in a state.
func (c *Client) GetPlaces(ctx context.Context, state string, place ...string) (*Result, error) {
	return c.getGeography(ctx, state, geoPlace, place)
}

// GetStateLegislativeDistrictsUpper returns data for upper chamber districts.
func (c *Client) GetStateLegislativeDistrictsUpper(ctx context.Context, state string, district ...string) (*Result, error) {
	return c.getGeography(ctx, state, geoSLDUpper, district)
}

// GetStateLegislativeDistrictsLower returns data for lower chamber districts.
func (c *Client) GetStateLegislativeDistrictsLower(ctx context.Context, state string, district ...string) (*Result, error) {
	return c.getGeography(ctx, state, geoSLDLower, district)
}

// GetCensusTracts fetches every tract in the state and, unless tract is
// Wildcard or empty, keeps the records whose tract code equals the last 6
// digits of tract. Tract codes repeat across counties, so a bare code may
// match several records; a full 11-digit GEOID also pins the county. No match
// yields an empty Result.
func (c *Client) GetCensusTracts(ctx context.Context, state, tract string) (*Result, error) {
	res, err := c.getGeography(ctx, state, geoTract, nil)
	if err != nil {
		return nil, err
	}
	if tract == "" || tract == Wildcard {
		return res, nil
	}

	code := TractCode(tract)
	county, hasCounty := TractCounty(tract)
	return res.Filter(func(r Record) bool {
		if hasCounty && r.String(columnCounty) != county {
			return false
		}
		return r.String(columnTract) == code
	}), nil
}

// GetCountySubdivisions fetches every county subdivision in the state and,
// unless subdivision is Wildcard or empty, returns the first record whose code
// equals the last 5 digits of subdivision. No match yields an empty Result.
func (c *Client) GetCountySubdivisions(ctx context.Context, state, subdivision string) (*Result, error) {
	res, err := c.getGeography(ctx, state, geoSubdivision, nil)
	if err != nil {
		return nil, err
	}
	if subdivision == "" || subdivision == Wildcard {
		return res, nil
	}

	code := SubdivisionCode(subdivision)
	return res.First(func(r Record) bool {
		return r.String(columnSubdivision) == code
	}), nil
}
