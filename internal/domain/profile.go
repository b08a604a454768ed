package domain

// Identity is the per-update caller context taken from the transport layer.
type Identity struct {
	TelegramID int64
	Username   string
	FirstName  string
}

// Operator is a row of the operators relation.
type Operator struct {
	TelegramID  int64
	FullName    string
	Active      bool
	AccessID    int64
	Description string
}

// AccessLevel is a row of the access_levels relation.
type AccessLevel struct {
	ID        int64
	Name      string
	CanRead   bool
	CanWrite  bool
	CanDelete bool
}

// Profile is the resolved authorization of an identity. The zero value is
// anonymous: an ordinary requester with no management access.
type Profile struct {
	Elevated  bool
	FullName  string
	Level     string
	CanRead   bool
	CanWrite  bool
	CanDelete bool
}

// Anonymous is the fail-closed profile.
var Anonymous = Profile{}
