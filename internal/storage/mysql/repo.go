package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	mysqldrv "github.com/go-sql-driver/mysql"

	"kemdeholo/internal/domain"
)

const errDupEntry = 1062

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) InsertTestimonial(ctx context.Context, t domain.Testimonial) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertTestimonialSQL,
		t.Name,
		t.Quote,
		t.Rating,
		valStr(t.Image),
		valStr(t.Category),
		t.Approved,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) InsertReservation(ctx context.Context, rv domain.Reservation) (int64, error) {
	raw, err := json.Marshal(rv.Raw)
	if err != nil {
		return 0, fmt.Errorf("marshal reservation fields: %w", err)
	}
	res, err := r.db.ExecContext(ctx, insertReservationSQL,
		rv.Name,
		rv.Email,
		valStr(rv.Phone),
		rv.RoomType,
		rv.ArrivalDate.Format("2006-01-02"),
		rv.DepartureDate.Format("2006-01-02"),
		valInt(rv.Guests),
		valStr(rv.Message),
		string(raw),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) InsertSubscriber(ctx context.Context, s domain.Subscriber) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertSubscriberSQL, s.Email)
	if err != nil {
		var me *mysqldrv.MySQLError
		if errors.As(err, &me) && me.Number == errDupEntry {
			return 0, domain.ErrDuplicate
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) ListTestimonials(ctx context.Context, q domain.TestimonialsQuery) ([]domain.Testimonial, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	cat := valStr(q.Category)
	rows, err := r.db.QueryContext(ctx, listTestimonialsSQL, cat, cat, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Testimonial{}
	for rows.Next() {
		var t domain.Testimonial
		var image, category sql.NullString
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Quote,
			&t.Rating,
			&image,
			&category,
			&t.Approved,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		t.Image = nullStr(image)
		t.Category = nullStr(category)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, listRoomsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Room{}
	for rows.Next() {
		var rm domain.Room
		var desc, image sql.NullString
		var price sql.NullFloat64
		var capacity sql.NullInt64
		if err := rows.Scan(&rm.ID, &rm.Type, &desc, &price, &capacity, &image); err != nil {
			return nil, err
		}
		rm.Description = nullStr(desc)
		rm.Image = nullStr(image)
		if price.Valid {
			p := price.Float64
			rm.Price = &p
		}
		if capacity.Valid {
			c := int(capacity.Int64)
			rm.Capacity = &c
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func (r *Repo) ListArticles(ctx context.Context, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, listArticlesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) GetArticle(ctx context.Context, id int64) (domain.Article, error) {
	a, err := scanArticle(r.db.QueryRowContext(ctx, getArticleSQL, id))
	if err == sql.ErrNoRows {
		return domain.Article{}, domain.ErrNotFound
	}
	return a, err
}

type scanner interface{ Scan(dest ...any) error }

func scanArticle(s scanner) (domain.Article, error) {
	var a domain.Article
	var image, categorie sql.NullString
	if err := s.Scan(&a.ID, &a.Titre, &a.Contenu, &image, &categorie, &a.Date); err != nil {
		return domain.Article{}, err
	}
	a.Image = nullStr(image)
	a.Categorie = nullStr(categorie)
	return a, nil
}
