package view

import "churchsite/internal/service"

// Base is shared by every page.
type Base struct {
	Title     string
	SignedIn  bool
	FirstName string
}

// LoginData backs the login page.
type LoginData struct {
	Base
	Email     string
	Sent      bool
	AuthError bool
	FormError string
}

// HubData backs the member hub.
type HubData struct {
	Base
}

// MemberRow is one directory entry.
type MemberRow struct {
	FullName string
	Email    string
	Phone    string
	Initials string
	Accent   int
	IsPastor bool
}

// DirectoryData backs the members directory.
type DirectoryData struct {
	Base
	Query   string
	Members []MemberRow
}

// PrayerRequestsData backs the prayer requests page.
type PrayerRequestsData struct {
	Base
	Requests  []service.PrayerRequestView
	IsPastor  bool
	Body      string
	FormError string
	MaxLength int
}

// NotMemberData backs the "not a registered member" page.
type NotMemberData struct {
	Base
	Email string
}

// ErrorData backs the retryable error page.
type ErrorData struct {
	Base
	Message  string
	RetryURL string
}
