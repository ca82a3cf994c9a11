// Package model defines the records exchanged between the API, the store and
// the client.
package model

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// APSLevels is the fixed classification ladder, lowest first.
var APSLevels = []string{"APS1", "APS2", "APS3", "APS4", "APS5", "APS6", "EL1", "EL2", "SES"}

// DefaultAPSLevel is preselected on new work examples.
const DefaultAPSLevel = "APS6"

func ValidAPSLevel(level string) bool {
	for _, l := range APSLevels {
		if l == level {
			return true
		}
	}
	return false
}

type ChatMessage struct {
	ID        string    `json:"id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Entry is a piece of application text tagged by the AI on creation.
type Entry struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkExample is a candidate's past work, described against the ILS.
type WorkExample struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ExampleText  string    `json:"example_text"`
	Role         string    `json:"role"`
	APSLevel     string    `json:"aps_level"`
	Capabilities []string  `json:"capabilities"`
	Behaviours   []string  `json:"behaviours"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WorkExampleInput is the writable part of a WorkExample.
type WorkExampleInput struct {
	Title        string   `json:"title" validate:"required,max=300"`
	ExampleText  string   `json:"example_text" validate:"required"`
	Role         string   `json:"role" validate:"max=300"`
	APSLevel     string   `json:"aps_level" validate:"required,apslevel"`
	Capabilities []string `json:"capabilities" validate:"dive,required"`
	Behaviours   []string `json:"behaviours" validate:"dive,required"`
	Tags         []string `json:"tags" validate:"dive,required"`
}

// Apply copies the input onto an existing record, leaving identity and
// timestamps untouched.
func (in WorkExampleInput) Apply(ex *WorkExample) {
	ex.Title = in.Title
	ex.ExampleText = in.ExampleText
	ex.Role = in.Role
	ex.APSLevel = in.APSLevel
	ex.Capabilities = nonNil(in.Capabilities)
	ex.Behaviours = nonNil(in.Behaviours)
	ex.Tags = nonNil(in.Tags)
}

// Input is the inverse of Apply.
func (ex WorkExample) Input() WorkExampleInput {
	return WorkExampleInput{
		Title:        ex.Title,
		ExampleText:  ex.ExampleText,
		Role:         ex.Role,
		APSLevel:     ex.APSLevel,
		Capabilities: append([]string(nil), ex.Capabilities...),
		Behaviours:   append([]string(nil), ex.Behaviours...),
		Tags:         append([]string(nil), ex.Tags...),
	}
}

// Assessment is a saved AI evaluation of example text at a level.
type Assessment struct {
	ID            string    `json:"id"`
	WorkExampleID string    `json:"work_example_id,omitempty"`
	ExampleText   string    `json:"example_text"`
	APSLevel      string    `json:"aps_level"`
	Assessment    string    `json:"assessment"`
	CreatedAt     time.Time `json:"created_at"`
}

// ILSReference is one behaviour of one ILS capability at one level.
type ILSReference struct {
	ID             string    `json:"id" yaml:"-"`
	CapabilityName string    `json:"capability_name" yaml:"capability_name"`
	APSLevel       string    `json:"aps_level" yaml:"aps_level"`
	Behaviour      string    `json:"behaviour" yaml:"behaviour"`
	Description    string    `json:"description" yaml:"description"`
	Embedding      []float32 `json:"-" yaml:"-"`
}

// FilterOptions is the vocabulary offered by the work-example filters.
type FilterOptions struct {
	Capabilities []string `json:"capabilities"`
	Behaviours   []string `json:"behaviours"`
	Tags         []string `json:"tags"`
	APSLevels    []string `json:"aps_levels"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
