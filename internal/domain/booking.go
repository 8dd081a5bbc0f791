package domain

import "time"

// Reservation is what survives of a ReservationRequest once the service has
// pulled out the fields it understands; Raw keeps the submitted map verbatim.
type Reservation struct {
	ID            int64
	Name          string
	Email         string
	Phone         *string
	RoomType      string
	ArrivalDate   time.Time
	DepartureDate time.Time
	Guests        *int
	Message       *string
	Raw           map[string]string
	CreatedAt     time.Time
}

type Subscriber struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}

// CourseInscription is the training sign-up record. Table and column names
// follow the historical formation_inscriptions schema.
type CourseInscription struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"column:nom;size:255" json:"nom"`
	Email      string    `gorm:"column:email;size:255" json:"email"`
	Phone      string    `gorm:"column:telephone;size:255" json:"telephone"`
	CourseName string    `gorm:"column:formation;size:255" json:"formation"`
	CreatedAt  time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (CourseInscription) TableName() string { return "formation_inscriptions" }
