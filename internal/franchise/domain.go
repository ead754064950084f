package franchise

// Franchise groups stores under a set of administrating users.
type Franchise struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Admins []Admin `json:"admins"`
	Stores []Store `json:"stores"`
}

// Admin is a user listed as administrator of a franchise.
type Admin struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Store is a physical location belonging to a franchise.
type Store struct {
	ID          int64  `json:"id"`
	FranchiseID int64  `json:"franchiseId,omitempty"`
	Name        string `json:"name"`
}

// CreateFranchiseRequest is the create-franchise payload. Admins are
// referenced by email and must resolve to existing users.
type CreateFranchiseRequest struct {
	Name   string     `json:"name"`
	Admins []AdminRef `json:"admins"`
}

// AdminRef references a user by email.
type AdminRef struct {
	Email string `json:"email"`
}

// CreateStoreRequest is the create-store payload.
type CreateStoreRequest struct {
	Name string `json:"name"`
}

// ListResult is a page of franchises plus a flag signalling further pages.
type ListResult struct {
	Franchises []Franchise `json:"franchises"`
	More       bool        `json:"more"`
}
