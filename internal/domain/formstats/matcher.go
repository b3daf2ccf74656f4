package formstats

import (
	"sort"
	"time"
)

// Match agrupa eventos por entidad y empareja aperturas con envíos en orden causal:
// cada envío se asigna a la apertura pendiente MÁS ANTIGUA con open_at <= t.
// Un envío sin apertura previa genera una ocurrencia huérfana (open_at vacío);
// es una decisión de producto: el rango puede cortar la apertura.
//
// El resultado es determinista: entidades en orden de key, ocurrencias en el
// orden en que se abrieron.
func Match(events []Event, loc *time.Location) []Occurrence {
	byEntity := make(map[EntityKey][]Event)
	for _, ev := range events {
		byEntity[ev.Entity] = append(byEntity[ev.Entity], ev)
	}

	keys := make([]EntityKey, 0, len(byEntity))
	for k := range byEntity {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	out := make([]Occurrence, 0)
	for _, k := range keys {
		out = append(out, matchEntity(k, byEntity[k], loc)...)
	}
	return out
}

func matchEntity(key EntityKey, evs []Event, loc *time.Location) []Occurrence {
	sortEvents(evs)

	var (
		occ       []Occurrence
		fallback  string
		unmatched int // primera ocurrencia que todavía podría recibir un envío
	)
	for _, ev := range evs {
		if fallback == "" && ev.Description != "" {
			fallback = ev.Description
		}

		switch ev.Kind {
		case KindOpened:
			occ = append(occ, Occurrence{Entity: key, OpenAt: ev.OccurredAt, Description: ev.Description})

		case KindSubmitted:
			bound := false
			for i := unmatched; i < len(occ); i++ {
				o := &occ[i]
				if !o.Opened() || o.Submitted() || o.OpenAt.After(ev.OccurredAt) {
					continue
				}
				o.SubmitAt = ev.OccurredAt
				if o.Description == "" {
					o.Description = ev.Description
				}
				bound = true
				break
			}
			if !bound {
				occ = append(occ, Occurrence{Entity: key, SubmitAt: ev.OccurredAt, Description: ev.Description})
			}
			for unmatched < len(occ) && (occ[unmatched].Submitted() || !occ[unmatched].Opened()) {
				unmatched++
			}
		}
	}

	for i := range occ {
		if occ[i].Description == "" {
			occ[i].Description = fallback
		}
		occ[i].Day = CivilDay(occ[i].anchor(), loc)
	}
	return occ
}

// sortEvents ordena por instante; en empate la apertura va antes que el envío
// y luego por origen, para que el resultado no dependa del orden de lectura.
func sortEvents(evs []Event) {
	sort.SliceStable(evs, func(i, j int) bool {
		a, b := evs[i], evs[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.Before(b.OccurredAt)
		}
		if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
			return ra < rb
		}
		if a.Source.Key != b.Source.Key {
			return a.Source.Key < b.Source.Key
		}
		return a.Source.Line < b.Source.Line
	})
}

func kindRank(k Kind) int {
	switch k {
	case KindOpened:
		return 0
	case KindSubmitted:
		return 1
	default:
		return 2
	}
}
