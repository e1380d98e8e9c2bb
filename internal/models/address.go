package models

// Address is a delivery address saved in the user's address book.
// Field names on the wire follow the backend's camelCase format.
type Address struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	AddressLine1 string   `json:"addressLine1"`
	AddressLine2 string   `json:"addressLine2,omitempty"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Pincode      string   `json:"pincode"`
	Country      string   `json:"country"`
	IsDefault    bool     `json:"isDefault"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (a Address) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// Coordinates returns the address position. The second value is false when
// the address has not been geocoded yet.
func (a Address) Coordinates() (Coordinates, bool) {
	if !a.HasCoordinates() {
		return Coordinates{}, false
	}

	return Coordinates{Latitude: *a.Latitude, Longitude: *a.Longitude}, true
}

// AddressPatch carries a partial update. A nil field is left unchanged.
type AddressPatch struct {
	Name         *string  `json:"name,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	AddressLine1 *string  `json:"addressLine1,omitempty"`
	AddressLine2 *string  `json:"addressLine2,omitempty"`
	City         *string  `json:"city,omitempty"`
	State        *string  `json:"state,omitempty"`
	Pincode      *string  `json:"pincode,omitempty"`
	Country      *string  `json:"country,omitempty"`
	IsDefault    *bool    `json:"isDefault,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// Apply merges the patch into addr and returns the result. The ID is never changed.
func (p AddressPatch) Apply(addr Address) Address {
	setString(&addr.Name, p.Name)
	setString(&addr.Phone, p.Phone)
	setString(&addr.AddressLine1, p.AddressLine1)
	setString(&addr.AddressLine2, p.AddressLine2)
	setString(&addr.City, p.City)
	setString(&addr.State, p.State)
	setString(&addr.Pincode, p.Pincode)
	setString(&addr.Country, p.Country)
	if p.IsDefault != nil {
		addr.IsDefault = *p.IsDefault
	}
	if p.Latitude != nil {
		lat := *p.Latitude
		addr.Latitude = &lat
	}
	if p.Longitude != nil {
		lng := *p.Longitude
		addr.Longitude = &lng
	}

	return addr
}

// IsEmpty reports whether the patch changes nothing.
func (p AddressPatch) IsEmpty() bool {
	return p == AddressPatch{}
}

// PatchFrom builds a patch that overwrites every editable field of addr.
// Coordinates are included only when present.
func PatchFrom(addr Address) AddressPatch {
	patch := AddressPatch{
		Name:         &addr.Name,
		Phone:        &addr.Phone,
		AddressLine1: &addr.AddressLine1,
		AddressLine2: &addr.AddressLine2,
		City:         &addr.City,
		State:        &addr.State,
		Pincode:      &addr.Pincode,
		Country:      &addr.Country,
	}
	if addr.HasCoordinates() {
		patch.Latitude = addr.Latitude
		patch.Longitude = addr.Longitude
	}

	return patch
}

// RecordPatch builds a patch that reproduces a complete stored record,
// including the default flag. Missing coordinates stay nil.
func RecordPatch(addr Address) AddressPatch {
	patch := PatchFrom(addr)
	patch.IsDefault = &addr.IsDefault

	return patch
}

// CoordinatesPatch builds a patch that only sets the position.
func CoordinatesPatch(coords Coordinates) AddressPatch {
	lat, lng := coords.Latitude, coords.Longitude
	return AddressPatch{Latitude: &lat, Longitude: &lng}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// FallbackAddresses returns the sample address used when no saved addresses
// can be loaded.
func FallbackAddresses() []Address {
	lat, lng := 19.0760, 72.8777

	return []Address{
		{
			ID:           "1",
			Name:         "Rahul Sharma",
			Phone:        "+91 9876543210",
			AddressLine1: "123 Main Street",
			AddressLine2: "Apartment 4B",
			City:         "Mumbai",
			State:        "Maharashtra",
			Pincode:      "400001",
			Country:      "India",
			IsDefault:    true,
			Latitude:     &lat,
			Longitude:    &lng,
		},
	}
}
