package model

import "time"

// SubjectIdentity holds the identity fields a bureau requires to locate a
// consumer file. Owned by the surrounding profile system; read-only here.
type SubjectIdentity struct {
	FirstName       string
	LastName        string
	DOB             string // YYYY-MM-DD
	NationalIDLast4 string
	Address         Address
}

// Address is a single-line postal address split into bureau-friendly parts.
type Address struct {
	Street string
	City   string
	State  string
	Zip    string
}

// Subject is a consumer whose reports are tracked.
type Subject struct {
	ID        string
	Identity  SubjectIdentity
	CreatedAt time.Time
}
