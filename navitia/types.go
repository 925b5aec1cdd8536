package navitia

// Wire types for the slice of the Navitia v1 API this pipeline reads.
// Coordinates arrive as strings and are parsed on extraction.

type stopAreasResponse struct {
	StopAreas []StopArea `json:"stop_areas"`
}

type StopArea struct {
	ID                    string        `json:"id"`
	Name                  string        `json:"name"`
	Coord                 Coord         `json:"coord"`
	Timezone              string        `json:"timezone"`
	AdministrativeRegions []AdminRegion `json:"administrative_regions"`
}

type Coord struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type AdminRegion struct {
	Name string `json:"name"`
}

type departuresResponse struct {
	Departures []Departure `json:"departures"`
}

// Departure is one row of a station departure board.
type Departure struct {
	StopDateTime StopDateTime `json:"stop_date_time"`
	Route        Route        `json:"route"`
	Links        []Link       `json:"links"`
}

type StopDateTime struct {
	BaseDepartureDateTime string `json:"base_departure_date_time"`
	DepartureDateTime     string `json:"departure_date_time"`
	DataFreshness         string `json:"data_freshness"`
}

type Route struct {
	Line Line `json:"line"`
}

type Line struct {
	CommercialMode CommercialMode `json:"commercial_mode"`
}

type CommercialMode struct {
	Name string `json:"name"`
}

type Link struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}
