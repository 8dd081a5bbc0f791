package mysql

const insertTestimonialSQL = `
INSERT INTO testimonials
  (name, quote, rating, image, category, approved)
VALUES
  (?, ?, ?, ?, ?, ?)
`

const insertReservationSQL = `
INSERT INTO reservations
  (name, email, phone, room_type, arrival_date, departure_date, guests, message, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertSubscriberSQL = `INSERT INTO subscribers (email) VALUES (?)`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Category filter is optional: a NULL argument disables it.
const listTestimonialsSQL = `
SELECT id, name, quote, rating, image, category, approved, created_at
FROM testimonials
WHERE approved = TRUE
  AND (? IS NULL OR category = ?)
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const listRoomsSQL = `
SELECT id, type, description, price, capacity, image
FROM hebergements
ORDER BY price IS NULL, price, type
`

const listArticlesSQL = `
SELECT id, titre, contenu, image, categorie, date
FROM articles
ORDER BY date DESC, id DESC
LIMIT ?
`

const getArticleSQL = `
SELECT id, titre, contenu, image, categorie, date
FROM articles
WHERE id = ?
`
