package models

import "time"

// Partner is a member of the accountability partner pool
type Partner struct {
	ID        int      `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Interests []string `json:"interests" yaml:"interests"`
	Completed int      `json:"completed" yaml:"completed"`
	Streak    int      `json:"streak" yaml:"streak"`
}

// PartnerAssignment binds a user to one partner
type PartnerAssignment struct {
	UserID     string    `json:"userId"`
	Partner    Partner   `json:"partner"`
	AssignedAt time.Time `json:"assignedAt"`
}

// Message is one entry of the user/partner thread
type Message struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	IsPartner bool      `json:"isPartner"`
	SentAt    time.Time `json:"sentAt"`
}

// Thread is the ordered conversation between a user and their partner
type Thread struct {
	UserID   string    `json:"userId"`
	Messages []Message `json:"messages"`
}
