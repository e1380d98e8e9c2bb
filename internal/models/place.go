package models

import "strings"

// Place holds the postal components returned by a reverse geocoding lookup.
type Place struct {
	Road        string `json:"road"`
	HouseNumber string `json:"house_number"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	State       string `json:"state"`
	Postcode    string `json:"postcode"`
	Country     string `json:"country"`
}

// Line1 joins road and house number into a first address line.
func (p Place) Line1() string {
	return strings.TrimSpace(p.Road + " " + p.HouseNumber)
}

// Locality returns the most specific settlement name available: city, then town, then village.
func (p Place) Locality() string {
	switch {
	case p.City != "":
		return p.City
	case p.Town != "":
		return p.Town
	default:
		return p.Village
	}
}
