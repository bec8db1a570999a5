package directory

// Doctor is a provider profile listed in the marketplace. UserID links the
// profile to the account that signs in and owns the timetable.
type Doctor struct {
	ID                   string `json:"id"`
	UserID               string `json:"user_id"`
	FullName             string `json:"full_name"`
	Specialty            string `json:"specialty"`
	HospitalID           string `json:"hospital_id,omitempty"`
	Bio                  string `json:"bio,omitempty"`
	ConsultationFeeCents int    `json:"consultation_fee_cents"`
	Email                string `json:"email,omitempty"`
}

// Hospital is a listed facility.
type Hospital struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Pharmacy is a listed dispensing outlet.
type Pharmacy struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Lab is a listed diagnostic laboratory.
type Lab struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Services string `json:"services,omitempty"`
}

// Profile is the minimal account record the platform keeps for every user,
// used for contact resolution when dispatching notifications.
type Profile struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
