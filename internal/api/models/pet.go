package models

// Species is the kind of animal being tracked.
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// Pet represents a tracked pet.
type Pet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Species   Species   `json:"species"`
	Breed     *string   `json:"breed,omitempty"`
	Age       *int      `json:"age,omitempty"`
	Weight    *float64  `json:"weight,omitempty"`
	ZipCode   *string   `json:"zipCode,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// PetCreateRequest is the request body for creating a pet.
type PetCreateRequest struct {
	Name    string   `json:"name"`
	Species Species  `json:"species"`
	Breed   *string  `json:"breed,omitempty"`
	Age     *int     `json:"age,omitempty"`
	Weight  *float64 `json:"weight,omitempty"`
	ZipCode *string  `json:"zipCode,omitempty"`
}

// PetUpdateRequest is the request body for updating a pet.
type PetUpdateRequest struct {
	Name    *string  `json:"name,omitempty"`
	Species *Species `json:"species,omitempty"`
	Breed   *string  `json:"breed,omitempty"`
	Age     *int     `json:"age,omitempty"`
	Weight  *float64 `json:"weight,omitempty"`
	ZipCode *string  `json:"zipCode,omitempty"`
}

// PetList is a list of pets.
type PetList struct {
	Items []Pet `json:"items"`
}
