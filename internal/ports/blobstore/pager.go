package blobstore

import "context"

// Pager recorre el listado página a página, al estilo More()/NextPage() de los SDKs.
// No acumula nada: el caller decide cuándo cortar.
type Pager struct {
	r      Reader
	prefix string
	cursor string
	done   bool
	pages  int
}

func NewPager(r Reader, prefix string) *Pager {
	return &Pager{r: r, prefix: prefix}
}

func (p *Pager) More() bool { return !p.done }

// Pages es la cantidad de páginas leídas hasta ahora.
func (p *Pager) Pages() int { return p.pages }

func (p *Pager) NextPage(ctx context.Context) ([]string, error) {
	if p.done {
		return nil, nil
	}
	page, err := p.r.List(ctx, p.prefix, p.cursor)
	if err != nil {
		return nil, err
	}
	p.pages++
	// un cursor que no avanza terminaría en loop infinito
	if page.NextCursor == "" || page.NextCursor == p.cursor {
		p.done = true
	}
	p.cursor = page.NextCursor
	return page.Keys, nil
}

// ListAll junta keys hasta agotar el listado o llegar a max (max<=0 => sin tope).
// truncated indica que quedaron keys sin leer.
func ListAll(ctx context.Context, r Reader, prefix string, max int) (keys []string, truncated bool, err error) {
	p := NewPager(r, prefix)
	keys = []string{}
	for p.More() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, false, err
		}
		for i, k := range page {
			if max > 0 && len(keys) >= max {
				return keys, i < len(page) || p.More(), nil
			}
			keys = append(keys, k)
		}
	}
	return keys, false, nil
}
