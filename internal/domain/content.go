package domain

import "time"

type Testimonial struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Quote     string    `json:"quote"`
	Rating    int       `json:"rating"` // 0..5
	Image     *string   `json:"image,omitempty"`
	Category  *string   `json:"category,omitempty"`
	Approved  bool      `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Article keeps the French wire names the blog front end reads.
type Article struct {
	ID        int64     `json:"id"`
	Titre     string    `json:"titre"`
	Contenu   string    `json:"contenu"`
	Image     *string   `json:"image,omitempty"`
	Categorie *string   `json:"categorie,omitempty"`
	Date      time.Time `json:"date"`
}

type Room struct {
	ID          int64    `json:"id"`
	Type        string   `json:"type"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Capacity    *int     `json:"capacity,omitempty"`
	Image       *string  `json:"image,omitempty"`
}
