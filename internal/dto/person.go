package dto

// PersonLookupQuery finds a person by any of their contact points.
type PersonLookupQuery struct {
	Email *string `form:"email"`
	Phone *string `form:"phone"`
}

// LinkGuardianRequest adds a guardian to the dependent named in the path.
type LinkGuardianRequest struct {
	GuardianID     string `json:"guardianId" validate:"required"`
	DependentID    string `json:"-" validate:"required,nefield=GuardianID"`
	Role           string `json:"role" validate:"required,oneof=PARENT GRANDPARENT SPONSOR OTHER"`
	IsPrimaryPayer bool   `json:"isPrimaryPayer"`
}

// DeactivateGuardianRequest ends a guardian relationship.
type DeactivateGuardianRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

// LinkSiblingsRequest records two persons as siblings.
type LinkSiblingsRequest struct {
	PersonID  string `json:"personId" validate:"required"`
	SiblingID string `json:"siblingId" validate:"required,nefield=PersonID"`
}
