package models

// SymptomLog represents one day's symptom observations for a pet.
type SymptomLog struct {
	ID             string    `json:"id"`
	PetID          string    `json:"petId"`
	LogDate        string    `json:"logDate"`
	EyeSymptoms    *int      `json:"eyeSymptoms,omitempty"`
	FurQuality     *int      `json:"furQuality,omitempty"`
	SkinIrritation *int      `json:"skinIrritation,omitempty"`
	Respiratory    *int      `json:"respiratory,omitempty"`
	Severity       float64   `json:"severity"`
	Notes          *string   `json:"notes,omitempty"`
	PhotoURL       *string   `json:"photoUrl,omitempty"`
	ZipCode        *string   `json:"zipCode,omitempty"`
	CreatedAt      Timestamp `json:"createdAt"`
	UpdatedAt      Timestamp `json:"updatedAt"`
}

// SymptomLogCreateRequest is the request body for logging symptoms.
// LogDate defaults to today when omitted.
type SymptomLogCreateRequest struct {
	LogDate        *string `json:"logDate,omitempty"`
	EyeSymptoms    *int    `json:"eyeSymptoms,omitempty"`
	FurQuality     *int    `json:"furQuality,omitempty"`
	SkinIrritation *int    `json:"skinIrritation,omitempty"`
	Respiratory    *int    `json:"respiratory,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	PhotoURL       *string `json:"photoUrl,omitempty"`
}

// SymptomLogUpdateRequest is the request body for a partial symptom log update.
type SymptomLogUpdateRequest struct {
	LogDate        *string `json:"logDate,omitempty"`
	EyeSymptoms    *int    `json:"eyeSymptoms,omitempty"`
	FurQuality     *int    `json:"furQuality,omitempty"`
	SkinIrritation *int    `json:"skinIrritation,omitempty"`
	Respiratory    *int    `json:"respiratory,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	PhotoURL       *string `json:"photoUrl,omitempty"`
}

// IsEmpty reports whether the update carries no fields.
func (r *SymptomLogUpdateRequest) IsEmpty() bool {
	return r.LogDate == nil &&
		r.EyeSymptoms == nil &&
		r.FurQuality == nil &&
		r.SkinIrritation == nil &&
		r.Respiratory == nil &&
		r.Notes == nil &&
		r.PhotoURL == nil
}

// SymptomLogList is a list of symptom logs, newest first.
type SymptomLogList struct {
	Items []SymptomLog `json:"items"`
}
