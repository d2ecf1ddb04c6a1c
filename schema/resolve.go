package schema

import "go.uber.org/zap"

// Resolved is a dataset whose links have been checked against its entities.
// Links with a missing endpoint are moved to Dropped.
type Resolved struct {
	Entities []Entity
	Links    []Link
	Dropped  []Link

	index map[string]int // Entity ID -> position in Entities
}

// Resolve indexes the entities of ds and keeps only the links whose both
// endpoints exist. Dropped links are a data-quality issue, not a failure:
// they are reported to logger and otherwise ignored. When ids are duplicated
// the first entity wins.
func Resolve(ds Dataset, logger *zap.Logger) *Resolved {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Resolved{
		Entities: ds.Entities,
		index:    make(map[string]int, len(ds.Entities)),
	}
	for i, e := range ds.Entities {
		if _, exists := r.index[e.ID]; !exists {
			r.index[e.ID] = i
		}
	}

	for _, link := range ds.Links {
		_, srcOK := r.index[link.SourceID]
		_, dstOK := r.index[link.TargetID]
		if !srcOK || !dstOK {
			logger.Warn("dropping link with unknown endpoint",
				zap.String("source", link.SourceID),
				zap.String("target", link.TargetID),
				zap.Bool("sourceFound", srcOK),
				zap.Bool("targetFound", dstOK))
			r.Dropped = append(r.Dropped, link)
			continue
		}
		r.Links = append(r.Links, link)
	}

	return r
}

// Entity looks up an entity by id.
func (r *Resolved) Entity(id string) (Entity, bool) {
	i, ok := r.index[id]
	if !ok {
		return Entity{}, false
	}
	return r.Entities[i], true
}

// Position returns the index of the entity in input order, or -1.
func (r *Resolved) Position(id string) int {
	if i, ok := r.index[id]; ok {
		return i
	}
	return -1
}

// LinksOf returns the resolved links that touch the entity, in input order.
func (r *Resolved) LinksOf(id string) []Link {
	var links []Link
	for _, l := range r.Links {
		if l.SourceID == id || l.TargetID == id {
			links = append(links, l)
		}
	}
	return links
}

// IsEmpty returns true if there is nothing to draw.
func (r *Resolved) IsEmpty() bool {
	return len(r.Entities) == 0
}
