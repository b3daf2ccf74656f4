package formstats

import "time"

// EntityType usa los literales que ya consume el portal ("equip" / "space").
type EntityType string

const (
	EntityEquipment EntityType = "equip"
	EntitySpace     EntityType = "space"
)

// Kind es el tipo normalizado de evento. Los nombres desconocidos quedan como
// KindOther (el nombre original se conserva en Event.Name).
type Kind string

const (
	KindOpened    Kind = "opened"
	KindSubmitted Kind = "submitted"
	KindOther     Kind = "other"
)

// Marcadores que escriben los clientes del formulario.
const (
	MarkerOpened    = "url_load"
	MarkerSubmitted = "submit_success"
)

// EntityKey es la unidad de correlación.
type EntityKey struct {
	Type EntityType
	ID   string
}

func (k EntityKey) less(o EntityKey) bool {
	if k.Type != o.Type {
		return k.Type < o.Type
	}
	return k.ID < o.ID
}

// Source identifica de dónde salió un evento (key + línea, 0 para event shape).
type Source struct {
	Key  string
	Line int
}

type Event struct {
	Entity      EntityKey
	Kind        Kind
	Name        string    // nombre crudo del evento (type/event)
	OccurredAt  time.Time // UTC
	Day         string    // día civil en la zona de referencia, YYYY-MM-DD
	Description string
	Source      Source
}

// Occurrence es un ciclo abrir/enviar de una entidad.
// OpenAt o SubmitAt pueden ser zero (nunca ambos).
type Occurrence struct {
	Entity      EntityKey
	OpenAt      time.Time
	SubmitAt    time.Time
	Description string
	Day         string
}

func (o Occurrence) Opened() bool    { return !o.OpenAt.IsZero() }
func (o Occurrence) Submitted() bool { return !o.SubmitAt.IsZero() }

// anchor es el instante que define día y orden: apertura, o envío si es huérfano.
func (o Occurrence) anchor() time.Time {
	if o.Opened() {
		return o.OpenAt
	}
	return o.SubmitAt
}
