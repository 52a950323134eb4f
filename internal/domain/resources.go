package domain

// ClubSession is a recurring group workout, e.g. the Tuesday night ride.
type ClubSession struct {
	Name        string   `yaml:"name" json:"name"`
	WorkoutType string   `yaml:"workoutType" json:"workoutType"`
	Location    string   `yaml:"location" json:"location"`
	TimeOfDay   string   `yaml:"timeOfDay" json:"timeOfDay"`
	Duration    *float64 `yaml:"duration" json:"duration,omitempty"`
	// RRule is an RFC 5545 recurrence rule including DTSTART, e.g.
	// "DTSTART:20260106T180000Z\nRRULE:FREQ=WEEKLY;BYDAY=TU".
	RRule string `yaml:"rrule" json:"rrule,omitempty"`
	Notes string `yaml:"notes" json:"notes,omitempty"`
}

type ClubSchedule struct {
	Club     string        `yaml:"club" json:"club"`
	Sessions []ClubSession `yaml:"sessions" json:"sessions"`
}

// ClubOccurrence is one expanded session date.
type ClubOccurrence struct {
	Date    string      `json:"date"`
	Session ClubSession `json:"session"`
}

// WeeklyTarget is the planned weekly volume for one sport.
type WeeklyTarget struct {
	WorkoutType string  `yaml:"workoutType" json:"workoutType"`
	Hours       float64 `yaml:"hours" json:"hours"`
	Sessions    int     `yaml:"sessions" json:"sessions"`
	TSS         float64 `yaml:"tss" json:"tss,omitempty"`
}

type WeeklyTargets struct {
	Targets []WeeklyTarget `yaml:"targets" json:"targets"`
	Notes   string         `yaml:"notes" json:"notes,omitempty"`
}
