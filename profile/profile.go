package profile

// UserType distinguishes the kind of account behind a profile.
type UserType int

const (
	UserTypeUnknown  UserType = 1
	UserTypeInternal UserType = 2
	UserTypePartner  UserType = 3
)

// Partner is a partner organisation the user is associated with.
type Partner struct {
	ID              int    `json:"id"`
	PartnerCode     string `json:"partner_code"`
	PartnerName     string `json:"partner_name"`
	PartnerType     string `json:"partner_type"`
	PartnerStatus   string `json:"partner_status"`
	JSONPartnerInfo string `json:"json_partner_info"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// UserProfile is the signed-in user's profile as returned by GET /users/me.
type UserProfile struct {
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	PhoneNumber     string    `json:"phone_number"`
	UserType        UserType  `json:"user_type"`
	JobTitle        string    `json:"job"`
	Expertise       []string  `json:"expertise"`
	ProfileImageURL string    `json:"profile_url"`
	PartnerCode     *string   `json:"partner_code,omitempty"`
	PartnerName     *string   `json:"partner_name,omitempty"`
	Partners        []Partner `json:"partners"`
	InvoiceURL      *string   `json:"invoice_url"`
}

// Names returns the user's full display name.
func (p *UserProfile) Names() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
