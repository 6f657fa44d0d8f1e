package domain

import "time"

// PresenceEntry is the liveness signal for one person. One logical entry per
// person, last-write-wins.
type PresenceEntry struct {
	PersonID     string
	Role         Role
	LastActiveAt time.Time
}

// PresenceCounts aggregates active persons by role tier within the presence
// window.
type PresenceCounts struct {
	Admins       int `json:"admins"`
	Officers     int `json:"officers"`
	ClubStudents int `json:"club_students"`
	Students     int `json:"students"`
}

// Total sums all tiers.
func (c PresenceCounts) Total() int {
	return c.Admins + c.Officers + c.ClubStudents + c.Students
}
