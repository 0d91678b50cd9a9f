package model

import "time"

// Event is a club workshop, competition, or meeting shown on the public events page.
type Event struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	EventDate       time.Time `json:"eventDate"`
	Location        string    `json:"location"`
	ImageURL        string    `json:"imageUrl"`
	EventType       string    `json:"eventType"`
	RegistrationURL string    `json:"registrationUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// EventTypes are the accepted values of Event.EventType.
var EventTypes = []string{"Workshop", "Competition", "Hackathon", "Seminar", "Meeting"}

// EventRegistration links a member to an event. Its existence counts as attendance.
type EventRegistration struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	EventID   string    `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Merchandise is an item in the club store.
type Merchandise struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Price        *float64  `json:"price,omitempty"`
	ImageURL     string    `json:"imageUrl"`
	Available    bool      `json:"available"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var MerchandiseCategories = []string{"Clothing", "Accessories", "Electronics", "Stickers", "Other"}

// TeamMember is a card on the public team page.
type TeamMember struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Department   string    `json:"department"`
	Bio          string    `json:"bio"`
	ImageURL     string    `json:"imageUrl"`
	GitHubURL    string    `json:"githubUrl"`
	LinkedInURL  string    `json:"linkedinUrl"`
	Email        string    `json:"email"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var TeamDepartments = []string{"Core Team", "Mechanical", "Electronics", "Software", "Design"}

// Subscription is an email address signed up for event or merch announcements.
// (Email, Type) is unique.
type Subscription struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Type      string    `json:"type"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	SubscriptionEvents = "events"
	SubscriptionMerch  = "merch"
)

// DashboardCounts backs the organizer dashboard summary cards.
type DashboardCounts struct {
	Events        int `json:"events"`
	Merchandise   int `json:"merchandise"`
	TeamMembers   int `json:"teamMembers"`
	Subscriptions int `json:"subscriptions"`
	Registrations int `json:"registrations"`
	ScoreRecords  int `json:"scoreRecords"`
	Players       int `json:"players"` // distinct members with at least one score
}
