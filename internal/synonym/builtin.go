package synonym

import "github.com/ozekimasaki/lazyload/internal/types"

// builtinCanonicalTerms is the default synonym graph: a distillation of the
// teacher's defaultAbbreviations/defaultDomains maps
// (internal/semantic/translation_loader.go) into canonical/synonym/weight
// triples. Abbreviation expansions (auth -> authenticate) get the higher
// RelationAbbreviation weight; looser domain-cluster terms (auth ->
// login, signin) get RelationConceptual.
func builtinCanonicalTerms() []types.CanonicalTerm {
	return []types.CanonicalTerm{
		{
			Term:     "auth",
			Category: "security",
			Synonyms: []types.SynonymEntry{
				{Term: "authenticate", Relation: types.RelationAbbreviation, Weight: 0.9, Bidirectional: true},
				{Term: "authentication", Relation: types.RelationAbbreviation, Weight: 0.9, Bidirectional: true},
				{Term: "authorization", Relation: types.RelationAbbreviation, Weight: 0.85, Bidirectional: true},
				{Term: "authorized", Relation: types.RelationAbbreviation, Weight: 0.8, Bidirectional: true},
				{Term: "login", Relation: types.RelationConceptual, Weight: 0.7, Bidirectional: true},
				{Term: "signin", Relation: types.RelationConceptual, Weight: 0.7, Bidirectional: true},
				{Term: "verify", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: false},
			},
		},
		{
			Term:     "authorization",
			Category: "security",
			Synonyms: []types.SynonymEntry{
				{Term: "permission", Relation: types.RelationConceptual, Weight: 0.6, Bidirectional: true},
				{Term: "access", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "role", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: false},
				{Term: "grant", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "deny", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
			},
		},
		{
			Term:     "api",
			Category: "interface",
			Synonyms: []types.SynonymEntry{
				{Term: "endpoint", Relation: types.RelationConceptual, Weight: 0.6, Bidirectional: true},
				{Term: "interface", Relation: types.RelationAbbreviation, Weight: 0.7, Bidirectional: false},
				{Term: "rest", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "rpc", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "grpc", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "webhook", Relation: types.RelationConceptual, Weight: 0.3, Bidirectional: false},
			},
		},
		{
			Term:     "db",
			Category: "persistence",
			Synonyms: []types.SynonymEntry{
				{Term: "database", Relation: types.RelationAbbreviation, Weight: 0.95, Bidirectional: true},
				{Term: "datastore", Relation: types.RelationConceptual, Weight: 0.6, Bidirectional: true},
				{Term: "storage", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "repository", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "repo", Relation: types.RelationAbbreviation, Weight: 0.6, Bidirectional: true},
				{Term: "sql", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "nosql", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "cache", Relation: types.RelationConceptual, Weight: 0.3, Bidirectional: false},
			},
		},
		{
			Term:     "create",
			Category: "lifecycle",
			Synonyms: []types.SynonymEntry{
				{Term: "factory", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: false},
				{Term: "builder", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: false},
				{Term: "construct", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "instantiate", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "new", Relation: types.RelationAbbreviation, Weight: 0.6, Bidirectional: true},
				{Term: "init", Relation: types.RelationAbbreviation, Weight: 0.5, Bidirectional: false},
			},
		},
		{
			Term:     "delete",
			Category: "lifecycle",
			Synonyms: []types.SynonymEntry{
				{Term: "remove", Relation: types.RelationConceptual, Weight: 0.7, Bidirectional: true},
				{Term: "purge", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "destroy", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "drop", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "cleanup", Relation: types.RelationConceptual, Weight: 0.3, Bidirectional: false},
			},
		},
		{
			Term:     "update",
			Category: "lifecycle",
			Synonyms: []types.SynonymEntry{
				{Term: "modify", Relation: types.RelationConceptual, Weight: 0.6, Bidirectional: true},
				{Term: "change", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "edit", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "patch", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
			},
		},
		{
			Term:     "fetch",
			Category: "retrieval",
			Synonyms: []types.SynonymEntry{
				{Term: "get", Relation: types.RelationConceptual, Weight: 0.6, Bidirectional: true},
				{Term: "retrieve", Relation: types.RelationConceptual, Weight: 0.6, Bidirectional: true},
				{Term: "load", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "query", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "find", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
			},
		},
		{
			Term:     "search",
			Category: "retrieval",
			Synonyms: []types.SynonymEntry{
				{Term: "find", Relation: types.RelationConceptual, Weight: 0.7, Bidirectional: true},
				{Term: "lookup", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "locate", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "query", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
			},
		},
		{
			Term:     "validate",
			Category: "correctness",
			Synonyms: []types.SynonymEntry{
				{Term: "verify", Relation: types.RelationConceptual, Weight: 0.6, Bidirectional: true},
				{Term: "check", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "sanitize", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "parse", Relation: types.RelationConceptual, Weight: 0.3, Bidirectional: false},
			},
		},
		{
			Term:     "error",
			Category: "diagnostics",
			Synonyms: []types.SynonymEntry{
				{Term: "exception", Relation: types.RelationConceptual, Weight: 0.7, Bidirectional: true},
				{Term: "failure", Relation: types.RelationConceptual, Weight: 0.6, Bidirectional: true},
				{Term: "fault", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "err", Relation: types.RelationAbbreviation, Weight: 0.9, Bidirectional: true},
			},
		},
		{
			Term:     "log",
			Category: "diagnostics",
			Synonyms: []types.SynonymEntry{
				{Term: "trace", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: false},
				{Term: "debug", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "logging", Relation: types.RelationAbbreviation, Weight: 0.9, Bidirectional: true},
				{Term: "logger", Relation: types.RelationAbbreviation, Weight: 0.8, Bidirectional: true},
			},
		},
		{
			Term:     "config",
			Category: "setup",
			Synonyms: []types.SynonymEntry{
				{Term: "configuration", Relation: types.RelationAbbreviation, Weight: 0.95, Bidirectional: true},
				{Term: "settings", Relation: types.RelationConceptual, Weight: 0.6, Bidirectional: true},
				{Term: "options", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: false},
				{Term: "setup", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
			},
		},
		{
			Term:     "ctx",
			Category: "runtime",
			Synonyms: []types.SynonymEntry{
				{Term: "context", Relation: types.RelationAbbreviation, Weight: 0.95, Bidirectional: true},
			},
		},
		{
			Term:     "msg",
			Category: "messaging",
			Synonyms: []types.SynonymEntry{
				{Term: "message", Relation: types.RelationAbbreviation, Weight: 0.9, Bidirectional: true},
				{Term: "notify", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "publish", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "emit", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
				{Term: "dispatch", Relation: types.RelationConceptual, Weight: 0.4, Bidirectional: false},
			},
		},
		{
			Term:     "convert",
			Category: "transformation",
			Synonyms: []types.SynonymEntry{
				{Term: "transform", Relation: types.RelationConceptual, Weight: 0.6, Bidirectional: true},
				{Term: "cast", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "coerce", Relation: types.RelationConceptual, Weight: 0.5, Bidirectional: true},
				{Term: "serialize", Relation: types.RelationConceptual, Weight: 0.3, Bidirectional: false},
				{Term: "deserialize", Relation: types.RelationConceptual, Weight: 0.3, Bidirectional: false},
				{Term: "encode", Relation: types.RelationConceptual, Weight: 0.3, Bidirectional: false},
				{Term: "decode", Relation: types.RelationConceptual, Weight: 0.3, Bidirectional: false},
			},
		},
	}
}
