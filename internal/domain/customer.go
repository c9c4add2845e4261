package domain

import "time"

// CustomerAccount represents a customer in the system.
// Created once at signup; the ride lifecycle only reads it.
type CustomerAccount struct {
	ID           string
	Username     string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}
