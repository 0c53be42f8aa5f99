package grading

import (
	"fmt"

	"discussion-grader/internal/model"
	"discussion-grader/pkg/errors"
)

// DuplicatePolicy decides which entry is graded when a student posted more
// than once in the same discussion.
type DuplicatePolicy string

const (
	DuplicateFirst   DuplicatePolicy = "first"
	DuplicateLast    DuplicatePolicy = "last"
	DuplicateLongest DuplicatePolicy = "longest"
)

func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(s); p {
	case DuplicateFirst, DuplicateLast, DuplicateLongest:
		return p, nil
	case "":
		return DuplicateFirst, nil
	default:
		return "", errors.ValidationError{
			Field:   "duplicate_policy",
			Value:   s,
			Message: fmt.Sprintf("must be one of %s, %s, %s", DuplicateFirst, DuplicateLast, DuplicateLongest),
		}
	}
}

// Roster keeps students in the order Canvas returned them, indexed by id.
type Roster struct {
	Students []model.RosterEntry
	byID     map[int64]int
}

func NewRoster(students []model.CanvasStudent) *Roster {
	r := &Roster{byID: make(map[int64]int, len(students))}
	for _, s := range students {
		if _, dup := r.byID[s.ID]; dup {
			continue
		}
		r.byID[s.ID] = len(r.Students)
		r.Students = append(r.Students, model.NewRosterEntry(s))
	}
	return r
}

func (r *Roster) Get(userID int64) (model.RosterEntry, bool) {
	i, ok := r.byID[userID]
	if !ok {
		return model.RosterEntry{}, false
	}
	return r.Students[i], true
}

func (r *Roster) Len() int {
	return len(r.Students)
}

// Only narrows the roster to the first student with the given login id.
// ok is false when nobody matches.
func (r *Roster) Only(loginID string) (*Roster, bool) {
	for _, s := range r.Students {
		if s.LoginID == loginID {
			return &Roster{
				Students: []model.RosterEntry{s},
				byID:     map[int64]int{s.UserID: 0},
			}, true
		}
	}
	return nil, false
}

type Submission struct {
	Student model.RosterEntry
	Entry   model.CanvasEntry
}

// Partition splits the roster into students with and without a submission.
// With is ordered by each student's first entry in the stream; Without keeps
// roster order. Entries from users outside the roster are counted in
// Dropped and otherwise ignored.
type Partition struct {
	With    []Submission
	Without []model.RosterEntry
	Dropped int
}

func Reconcile(roster *Roster, entries []model.CanvasEntry, policy DuplicatePolicy) Partition {
	var p Partition
	chosen := make(map[int64]int)

	for _, entry := range entries {
		student, ok := roster.Get(entry.UserID)
		if !ok {
			p.Dropped++
			continue
		}

		i, seen := chosen[entry.UserID]
		if !seen {
			chosen[entry.UserID] = len(p.With)
			p.With = append(p.With, Submission{Student: student, Entry: entry})
			continue
		}

		switch policy {
		case DuplicateLast:
			p.With[i].Entry = entry
		case DuplicateLongest:
			if model.WordCount(entry.Message) > model.WordCount(p.With[i].Entry.Message) {
				p.With[i].Entry = entry
			}
		}
	}

	for _, s := range roster.Students {
		if _, ok := chosen[s.UserID]; !ok {
			p.Without = append(p.Without, s)
		}
	}

	return p
}
