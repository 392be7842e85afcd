package models

// ChallengeType distinguishes written challenges from hands-on ones
type ChallengeType string

const (
	ChallengeEssay ChallengeType = "essay"
	ChallengeSkill ChallengeType = "skill"
)

// Challenge is a learning unit a user can enroll in.
// Price is expressed in whole currency units; zero means free.
type Challenge struct {
	ID           string        `json:"id" yaml:"id"`
	Title        string        `json:"title" yaml:"title"`
	Category     string        `json:"category" yaml:"category"`
	Type         ChallengeType `json:"type" yaml:"type"`
	Description  string        `json:"description,omitempty" yaml:"description"`
	Duration     string        `json:"duration" yaml:"duration"`
	Difficulty   string        `json:"difficulty" yaml:"difficulty"`
	Price        int           `json:"price" yaml:"price"`
	Participants int           `json:"participants" yaml:"participants"`
	StartDate    string        `json:"startDate" yaml:"start_date"`
	Outcome      string        `json:"outcome,omitempty" yaml:"outcome"`
	Tasks        []Task        `json:"tasks" yaml:"tasks"`
	Weeks        []Week        `json:"weeks,omitempty" yaml:"weeks"`
	Resources    []Resource    `json:"resources,omitempty" yaml:"resources"`
	Learnings    []string      `json:"learnings,omitempty" yaml:"learnings"`
}

// IsPaid reports whether enrolling requires a payment step
func (c *Challenge) IsPaid() bool {
	return c.Price > 0
}

// Task is one step of a challenge
type Task struct {
	ID     int    `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
}

// Week is a weekly essay prompt of an essay challenge
type Week struct {
	Week        int    `json:"week" yaml:"week"`
	Title       string `json:"title" yaml:"title"`
	Prompt      string `json:"prompt" yaml:"prompt"`
	DueDate     string `json:"dueDate" yaml:"due_date"`
	Submissions int    `json:"essays" yaml:"essays"`
}

// Resource is reading/watching material attached to a challenge
type Resource struct {
	Type        string `json:"type" yaml:"type"`
	Title       string `json:"title" yaml:"title"`
	Source      string `json:"source" yaml:"source"`
	Description string `json:"description" yaml:"description"`
}
