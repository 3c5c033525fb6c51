package models

// PhotoUploadRequest asks for a presigned upload URL.
type PhotoUploadRequest struct {
	FileName    string  `json:"fileName"`
	ContentType string  `json:"contentType"`
	PetID       *string `json:"petId,omitempty"`
}

// PhotoUpload is a presigned upload target.
type PhotoUpload struct {
	UploadURL string    `json:"uploadUrl"`
	PhotoURL  string    `json:"photoUrl"`
	Key       string    `json:"key"`
	ExpiresAt Timestamp `json:"expiresAt"`
}
