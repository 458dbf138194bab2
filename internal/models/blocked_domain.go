package models

import "time"

// BlockedDomain is a domain excluded from candidate generation and
// acceptance. Rows are added manually or automatically when a domain is
// judged garbage during discovery.
type BlockedDomain struct {
	Domain    string    `json:"domain" badgerhold:"key"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
