package formlog

import "encoding/json"

// Meta son los datos de transporte que se estampan en cada evento.
type Meta struct {
	UserAgent string
	IP        string
}

// TailItem son las últimas líneas de un objeto del store.
type TailItem struct {
	Key  string `json:"key"`
	Size int    `json:"size"`
	// cada línea va como JSON si parsea, o como string si no
	Tail []json.RawMessage `json:"tail"`
}

type TailResult struct {
	OK        bool       `json:"ok"`
	Prefix    string     `json:"prefix"`
	Count     int        `json:"count"`
	Truncated bool       `json:"truncated,omitempty"`
	Items     []TailItem `json:"items"`
}
