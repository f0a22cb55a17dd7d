package domain

import "cloud.google.com/go/civil"

// HPIQuery selects HPI rows for a region within an inclusive year range.
// An empty RegionName matches every region; a zero year leaves that side open.
type HPIQuery struct {
	RegionName string `json:"region_name"`
	StartYear  int    `json:"start_year"`
	EndYear    int    `json:"end_year"`
}

// YieldQuery selects yields between two dates, bucketed by Interval.
type YieldQuery struct {
	StartDate civil.Date `json:"start_date"`
	EndDate   civil.Date `json:"end_date"`
	Interval  Interval   `json:"interval"`
}

// SeriesQuery selects home-value series and the price points inside the date
// range, sampled by Interval. Zero-valued key fields match any value.
type SeriesQuery struct {
	StartDate  civil.Date `json:"start_date"`
	EndDate    civil.Date `json:"end_date"`
	Interval   Interval   `json:"interval"`
	RegionName string     `json:"region_name"`
	RegionType RegionType `json:"region_type"`
	HomeType   HomeType   `json:"home_type"`
	Percentile Percentile `json:"percentile"`
}

// RegionQuery matches regions whose city is in Cities or whose zipcode is in
// Zipcodes. Both empty matches every region.
type RegionQuery struct {
	Cities   []string `json:"cities"`
	Zipcodes []string `json:"zipcodes"`
}
