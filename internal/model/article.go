// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Article represents a published blog article.
//
// STRUCT TAGS:
// `json:"..."` controls the JSON shape of API responses.
// `db:"..."` tells sqlx which column to scan into which field, so a
// SELECT id, title, content, date_published maps straight onto an Article.
type Article struct {
	ID            int64     `json:"id"             db:"id"` // Assigned by the database, never changed
	Title         string    `json:"title"          db:"title"`
	Content       string    `json:"content"        db:"content"`
	DatePublished time.Time `json:"date_published" db:"date_published"`
}

// NewArticle is the payload for inserting an article.
// It has no ID; the database assigns one.
type NewArticle struct {
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	DatePublished time.Time `json:"date_published"`
}

// ArticlePatch describes a partial update.
//
// WHY POINTERS?
// A plain string can't tell "set title to empty" apart from "don't touch title".
// A nil pointer means "leave this column alone"; a non-nil pointer means
// "overwrite it with this value". The ID is deliberately absent: updates
// never change it.
type ArticlePatch struct {
	Title         *string    `json:"title,omitempty"`
	Content       *string    `json:"content,omitempty"`
	DatePublished *time.Time `json:"date_published,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p ArticlePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.DatePublished == nil
}

// NormalizeTime brings a timestamp into the form the database round-trips:
// UTC, microsecond precision (postgres timestamptz stores microseconds).
// Without it, an article returned by an insert would carry nanoseconds and a
// local zone that a later read can't reproduce.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
