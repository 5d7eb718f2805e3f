package certedit

import (
	"strings"
	"time"
)

// Record is the subject record provided by the upstream backend.
type Record struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Seed struct {
	Name    string
	ShortID string
	Date    string
}

const shortIDLength = 6

const SeedDateLayout = "January 2, 2006"

// DeriveSeed builds the seed name and short identifier from a record.
func DeriveSeed(r Record) Seed {
	parts := make([]string, 0, 2)
	for _, p := range []string{r.FirstName, r.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	id := strings.TrimSpace(r.ID)
	if len(id) > shortIDLength {
		id = id[len(id)-shortIDLength:]
	}

	return Seed{
		Name:    strings.Join(parts, " "),
		ShortID: id,
	}
}

func (s Seed) WithDate(t time.Time) Seed {
	s.Date = t.Format(SeedDateLayout)
	return s
}

// Content maps the seed onto the template fields that declare a seed role.
func (s Seed) Content(t *Template) map[FieldKey]string {
	out := make(map[FieldKey]string)
	for _, spec := range t.Fields {
		switch spec.Seed {
		case SeedName:
			out[spec.Key] = s.Name
		case SeedShortID:
			out[spec.Key] = s.ShortID
		case SeedDate:
			out[spec.Key] = s.Date
		}
	}
	return out
}
