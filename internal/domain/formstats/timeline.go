package formstats

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// timeLayout reproduce toISOString(): UTC con milisegundos.
const timeLayout = "2006-01-02T15:04:05.000Z"

type Counters struct {
	EquipOpened    int `json:"equip_opened"`
	EquipForwarded int `json:"equip_forwarded"`
	SpaceOpened    int `json:"space_opened"`
	SpaceForwarded int `json:"space_forwarded"`
}

type Detail struct {
	ID           string     `json:"id"`
	Type         EntityType `json:"type"`
	Description  string     `json:"description"`
	TimeOpen     *string    `json:"time_open"`
	TimeSubmit   *string    `json:"time_submit"`
	DeltaSeconds *int64     `json:"delta_seconds"`
}

type Day struct {
	Date     string   `json:"date"`
	Timeline Counters `json:"timeline"`
	Details  []Detail `json:"details"`
}

// CountRow es la codificación compacta [date, e_open, e_fwd, s_open, s_fwd]
// que siguen leyendo los consumidores antiguos.
type CountRow struct {
	Date string
	Counters
}

func (r CountRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Date, r.EquipOpened, r.EquipForwarded, r.SpaceOpened, r.SpaceForwarded})
}

func (r *CountRow) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 5 {
		return fmt.Errorf("count row: expected 5 values, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &r.Date); err != nil {
		return err
	}
	for i, dst := range []*int{&r.EquipOpened, &r.EquipForwarded, &r.SpaceOpened, &r.SpaceForwarded} {
		if err := json.Unmarshal(raw[i+1], dst); err != nil {
			return err
		}
	}
	return nil
}

// BuildTimeline genera una entrada por cada día de days (denso: días sin datos
// quedan en cero). Ocurrencias de días fuera de days se ignoran.
func BuildTimeline(days []string, occurrences []Occurrence) []Day {
	byDay := make(map[string][]Occurrence, len(days))
	for _, o := range occurrences {
		byDay[o.Day] = append(byDay[o.Day], o)
	}

	out := make([]Day, 0, len(days))
	for _, d := range days {
		bucket := byDay[d]
		sortOccurrences(bucket)

		day := Day{Date: d, Details: make([]Detail, 0, len(bucket))}
		for _, o := range bucket {
			day.Timeline.count(o)
			day.Details = append(day.Details, toDetail(o))
		}
		out = append(out, day)
	}
	return out
}

func Counts(days []Day) []CountRow {
	out := make([]CountRow, 0, len(days))
	for _, d := range days {
		out = append(out, CountRow{Date: d.Date, Counters: d.Timeline})
	}
	return out
}

func (c *Counters) count(o Occurrence) {
	if o.Entity.Type == EntityEquipment {
		if o.Opened() {
			c.EquipOpened++
		}
		if o.Submitted() {
			c.EquipForwarded++
		}
		return
	}
	if o.Opened() {
		c.SpaceOpened++
	}
	if o.Submitted() {
		c.SpaceForwarded++
	}
}

func toDetail(o Occurrence) Detail {
	d := Detail{
		ID:          o.Entity.ID,
		Type:        o.Entity.Type,
		Description: o.Description,
	}
	if o.Opened() {
		d.TimeOpen = formatTime(o.OpenAt)
	}
	if o.Submitted() {
		d.TimeSubmit = formatTime(o.SubmitAt)
	}
	if o.Opened() && o.Submitted() {
		delta := int64(o.SubmitAt.Sub(o.OpenAt) / time.Second)
		if delta < 0 {
			delta = 0
		}
		d.DeltaSeconds = &delta
	}
	return d
}

func formatTime(t time.Time) *string {
	s := t.UTC().Format(timeLayout)
	return &s
}

// sortOccurrences: por apertura (o envío si es huérfana) y luego tipo, id y
// envío, para que la salida sea estable byte a byte.
func sortOccurrences(occ []Occurrence) {
	sort.SliceStable(occ, func(i, j int) bool {
		a, b := occ[i], occ[j]
		if !a.anchor().Equal(b.anchor()) {
			return a.anchor().Before(b.anchor())
		}
		if a.Entity != b.Entity {
			return a.Entity.less(b.Entity)
		}
		return a.SubmitAt.Before(b.SubmitAt)
	})
}
