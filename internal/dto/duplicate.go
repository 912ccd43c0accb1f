package dto

// ResolveDuplicatesRequest merges deleteProfileIds into keepProfileId.
type ResolveDuplicatesRequest struct {
	KeepProfileID    string   `json:"keepProfileId" validate:"required"`
	DeleteProfileIDs []string `json:"deleteProfileIds" validate:"required,min=1,dive,required"`
	MergeData        bool     `json:"mergeData"`
}
