package datasource

import (
	"strings"

	"remark-go/internal/config"
)

// Canonical field names of each entity. Remote payloads are renamed to these
// on the way in and back to the remote names on the way out.
var entityFields = map[Entity][]string{
	EntityComments:  {"id", "threadId", "parentId", "body", "authorId", "createdAt", "updatedAt", "deleted"},
	EntityUsers:     {"id", "username", "avatar", "avatarType"},
	EntityReactions: {"id", "commentId", "userId", "kind"},
}

type schema struct {
	toRemote   map[string]string
	fromRemote map[string]string
	root       string
	timeLayout string
}

func newSchema(entity Entity, cfg *config.SchemaConfig) *schema {
	s := &schema{
		toRemote:   make(map[string]string),
		fromRemote: make(map[string]string),
	}
	if cfg == nil {
		return s
	}

	s.root = cfg.Root
	s.timeLayout = cfg.TimeLayout

	mapping := make(map[string]string, len(cfg.DataSchema))
	for k, v := range cfg.DataSchema {
		mapping[strings.ToLower(k)] = v
	}
	for _, field := range entityFields[entity] {
		remote, ok := mapping[strings.ToLower(field)]
		if !ok || remote == "" || remote == field {
			continue
		}
		s.toRemote[field] = remote
		s.fromRemote[remote] = field
	}
	return s
}

// remoteName returns the remote spelling of a canonical field.
func (s *schema) remoteName(field string) string {
	if remote, ok := s.toRemote[field]; ok {
		return remote
	}
	return field
}

// decode renames remote keys to canonical ones. A remote key that is itself
// a canonical name but is mapped away is dropped so it cannot shadow the
// mapped value.
func (s *schema) decode(raw map[string]any) Record {
	rec := make(Record, len(raw))
	for k, v := range raw {
		if canonical, ok := s.fromRemote[k]; ok {
			rec[canonical] = v
			continue
		}
		if _, mapped := s.toRemote[k]; mapped {
			continue
		}
		rec[k] = v
	}
	return rec
}

// encode renames canonical keys to remote ones.
func (s *schema) encode(rec Record) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[s.remoteName(k)] = v
	}
	return out
}
