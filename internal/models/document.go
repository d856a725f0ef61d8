// Package models defines the domain types shared by storage and the index.
package models

import "time"

// DocumentMetadata is a lightweight listing entry for a vault document.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
