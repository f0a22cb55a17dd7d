// Package domain models the public real-estate and economic datasets ingested
// by homie-data and the capability interfaces every persistence backend
// implements.
//
// # Data Sources
//
// Four dataset families are supported. Each arrives as a CSV file whose
// layout is fixed; headers are only consulted for the price dates of wide
// home-value files and the optional FIPS column of county HPI files.
//
//	FHFA house price indexes (3-digit ZIP, 5-digit ZIP, county)
//	U.S. Treasury 10-year constant maturity yields (monthly)
//	Zillow Home Value Index (ZHVI) series for ZIP codes, cities and counties
//	ZIP to city/county crosswalk plus a city allow-list
//
// # HPI Conventions
//
// Index values are relative to a base period. A blank or unparsable index
// cell is recorded as nil, never as zero: FHFA leaves cells blank when a
// region has too few transactions for a given year, and a zero would read
// as a real index value.
//
// # ZHVI Conventions
//
// ZHVI files are wide: one row per region and one column per month, headed
// by the month-end date (YYYY-MM-DD). The leading metadata columns differ per
// geography, so price columns start at a family-specific offset. A blank
// price cell is recorded as 0.0. Every series is tagged with the home type
// and percentile band of the file it came from.
//
// # Intervals
//
// Yield queries average all samples in a bucket. Home-value series queries
// sample instead: a Year query keeps only the January point of each year.
//
// # Regions
//
// Crosswalk rows are kept only when the city is on the allow-list and the
// state matches the configured target state. Cities are lower-cased so that
// region matching is case-insensitive.
package domain
