package model

import "time"

type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Color     int64     `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}
