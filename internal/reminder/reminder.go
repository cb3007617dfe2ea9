package reminder

import "time"

// Reminder is a single entry of the list. The JSON and BSON names match the
// documents already stored in remote bins and export files.
type Reminder struct {
	ID          string     `json:"id" bson:"id"`
	Text        string     `json:"texto" bson:"texto"`
	Completed   bool       `json:"concluido" bson:"concluido"`
	CreatedAt   time.Time  `json:"criadoEm" bson:"criadoEm"`
	CompletedAt *time.Time `json:"concluidoEm,omitempty" bson:"concluidoEm,omitempty"`
}

func New(id, text string, now time.Time) *Reminder {
	return &Reminder{
		ID:        id,
		Text:      text,
		Completed: false,
		CreatedAt: now,
	}
}

func (r *Reminder) SetText(text string) {
	r.Text = text
}

// SetCompleted keeps CompletedAt in step with the flag: it is stamped on the
// false -> true transition and cleared whenever the flag is cleared.
func (r *Reminder) SetCompleted(completed bool, now time.Time) {
	switch {
	case completed && !r.Completed:
		t := now
		r.Completed = true
		r.CompletedAt = &t
	case !completed:
		r.Completed = false
		r.CompletedAt = nil
	}
}

func (r *Reminder) Toggle(now time.Time) {
	r.SetCompleted(!r.Completed, now)
}

func (r *Reminder) Clone() *Reminder {
	c := *r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// CloneAll deep-copies a collection so callers never share pointers with a
// backend's internal state.
func CloneAll(items []*Reminder) []*Reminder {
	out := make([]*Reminder, 0, len(items))
	for _, r := range items {
		out = append(out, r.Clone())
	}
	return out
}

func IndexOf(items []*Reminder, id string) int {
	for i, r := range items {
		if r.ID == id {
			return i
		}
	}
	return -1
}
