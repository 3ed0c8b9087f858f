package model

import "time"

// Post is the only entity. Fields are never changed after the store assigns ID and Timestamp.
// Field order matches the SQL column order.
type Post struct {
	ID        uint64 `postboard:"id" bson:"_id" json:"id" db:"id"`
	Title     string `bson:"title" json:"title" db:"title"`
	Body      string `bson:"body" json:"body" db:"body"`
	Author    string `bson:"author" json:"author" db:"author"`
	Timestamp int64  `bson:"timestamp" json:"timestamp" db:"created_at"`
}

func (Post) GetTableName() string {
	return "posts"
}

// CreatedAt converts the nanosecond timestamp to a time.Time.
func (p Post) CreatedAt() time.Time {
	return time.Unix(0, p.Timestamp)
}

// CreatePostRequest is the body of POST /posts.
type CreatePostRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Author string `json:"author"`
}
