package dto

// BulkEnrollRequest places profiles into the class named in the path.
type BulkEnrollRequest struct {
	ClassID    string   `json:"-" validate:"required"`
	ProfileIDs []string `json:"profileIds" validate:"required,min=1,dive,required"`
}
