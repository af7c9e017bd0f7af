// Package model defines the domain types shared by the store, the engine
// and the front doors. It imports nothing internal.
package model

import (
	"fmt"
	"slices"
)

// ContentType labels a slot in a sequence template.
type ContentType string

const (
	Filler       ContentType = "filler"
	Target       ContentType = "target"
	TargetRepeat ContentType = "target_repeat"
	Vig          ContentType = "vig"
	VigRepeat    ContentType = "vig_repeat"
)

// ContentTypes lists every valid content type.
var ContentTypes = []ContentType{Filler, Target, TargetRepeat, Vig, VigRepeat}

// Valid reports whether c is a known content type.
func (c ContentType) Valid() bool {
	return slices.Contains(ContentTypes, c)
}

// IsTarget reports whether c is either showing of a target clip.
func (c ContentType) IsTarget() bool {
	return c == Target || c == TargetRepeat
}

// Flags derives the presentation flags for a content type. They are fixed
// at allocation and never change afterwards.
func (c ContentType) Flags() PresentationFlags {
	return PresentationFlags{
		Vigilance: c == Vig || c == VigRepeat,
		Duplicate: c == VigRepeat || c == TargetRepeat,
		Targeted:  c == Target || c == TargetRepeat,
	}
}

// PresentationFlags are the ground-truth booleans of one presentation.
type PresentationFlags struct {
	Vigilance bool
	Duplicate bool
	Targeted  bool
}

// User is the internal record behind an external worker id.
type User struct {
	ID       int64
	WorkerID string
	NumLives int
}

// Video is one clip of the catalogue.
type Video struct {
	ID         int64
	URI        string
	LabelCount int
}

// ClientEnv describes the device a level was requested from.
type ClientEnv struct {
	OS             string
	Browser        string
	BrowserVersion string
	DeviceType     string
}

// Level is one play session assigned to a user. Score fields are nil
// while the level is pending.
type Level struct {
	ID                int64
	UserID            int64
	AssignmentRef     *string
	HitRef            *string
	CreatedAtMillis   int64
	InputsHash        string
	Score             *float64
	VigilanceScore    *float64
	FalsePositiveRate *float64
	Reward            *float64
	DurationMsec      *int64
	Feedback          *string
	Env               ClientEnv
}

// Scored reports whether the level has been scored.
func (l Level) Scored() bool {
	return l.Score != nil
}

// Presentation is one clip shown at one position within a level.
type Presentation struct {
	LevelID  int64
	VideoID  int64
	Position int
	PresentationFlags
	Response       *bool
	StartMsec      *float64
	DurationMsec   *float64
	MediaErrorCode *int
}

// Response is one element of a client submission.
//
// Exactly one of Response and MediaErrorCode must be set; StartMsec and
// DurationMsec are required. Pointers keep "absent" distinguishable from
// zero values.
type Response struct {
	Response       *bool    `json:"response"`
	StartMsec      *float64 `json:"startMsec"`
	DurationMsec   *float64 `json:"durationMsec"`
	MediaErrorCode *int     `json:"mediaErrorCode"`
}

// Validate checks the shape of a single response.
func (r Response) Validate() error {
	switch {
	case r.Response != nil && r.MediaErrorCode != nil:
		return fmt.Errorf("a response and a media error are mutually exclusive")
	case r.Response == nil && r.MediaErrorCode == nil:
		return fmt.Errorf("either a boolean response or a numeric media error code is required")
	case r.StartMsec == nil:
		return fmt.Errorf("start time should be a number")
	case r.DurationMsec == nil:
		return fmt.Errorf("duration should be a number")
	}
	return nil
}

// VideoRef is the client-facing description of one slot.
type VideoRef struct {
	URL  string      `json:"url"`
	Type ContentType `json:"type"`
}

// LevelInputs is the payload returned at allocation and echoed back at
// scoring time.
type LevelInputs struct {
	Level   int        `json:"level"`
	LevelID int64      `json:"levelId"`
	Videos  []VideoRef `json:"videos"`
}

// CompletedLevel summarises one scored level.
type CompletedLevel struct {
	Score  float64 `json:"score"`
	Reward float64 `json:"reward"`
}

// Scores are the accuracy metrics of one level.
type Scores struct {
	OverallScore      float64 `json:"overallScore"`
	VigilanceScore    float64 `json:"vigilanceScore"`
	FalsePositiveRate float64 `json:"falsePositiveRate"`
	Passed            bool    `json:"passed"`
}
