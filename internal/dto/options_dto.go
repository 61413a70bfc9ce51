package dto

// SelectOption is a value/label pair for form pickers.
type SelectOption struct {
	Value uint   `json:"value"`
	Label string `json:"label"`
	Email string `json:"email,omitempty"`
}

// EnrollmentOptionsResponse feeds the enrollment form of an organization.
type EnrollmentOptionsResponse struct {
	Users       []SelectOption `json:"users"`
	Courses     []SelectOption `json:"courses"`
	Instructors []SelectOption `json:"instructors"`
}
