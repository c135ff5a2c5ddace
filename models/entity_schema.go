package models

// Per-entity schemas. Adding an entity means adding a schema here, a case in
// SchemaFor and a table migration.
var (
	SitesSchema = EntitySchema{
		Entity:       EntitySites,
		Table:        "sites",
		UpdatedAtKey: UpdatedAtKey,
		Fields: []FieldSpec{
			{Key: "name", Column: "name", Kind: FieldText},
			{Key: "latitude", Column: "latitude", Kind: FieldReal},
			{Key: "longitude", Column: "longitude", Kind: FieldReal},
			{Key: "notes", Column: "notes", Kind: FieldText},
			{Key: "visitedAt", Column: "visited_at", Kind: FieldTime},
		},
	}

	SurveysSchema = EntitySchema{
		Entity:       EntitySurveys,
		Table:        "surveys",
		UpdatedAtKey: UpdatedAtKey,
		Fields: []FieldSpec{
			{Key: "siteId", Column: "site_id", Kind: FieldText},
			{Key: "title", Column: "title", Kind: FieldText},
			{Key: "status", Column: "status", Kind: FieldText},
			{Key: "startedAt", Column: "started_at", Kind: FieldTime},
			{Key: "completedAt", Column: "completed_at", Kind: FieldTime},
		},
	}

	ObservationsSchema = EntitySchema{
		Entity:       EntityObservations,
		Table:        "observations",
		UpdatedAtKey: UpdatedAtKey,
		Fields: []FieldSpec{
			{Key: "surveyId", Column: "survey_id", Kind: FieldText},
			{Key: "kind", Column: "kind", Kind: FieldText},
			{Key: "value", Column: "value", Kind: FieldReal},
			{Key: "note", Column: "note", Kind: FieldText},
			{Key: "observedAt", Column: "observed_at", Kind: FieldTime},
		},
	}
)

// SchemaFor returns the schema of e.
func SchemaFor(e Entity) (EntitySchema, bool) {
	switch e {
	case EntitySites:
		return SitesSchema, true
	case EntitySurveys:
		return SurveysSchema, true
	case EntityObservations:
		return ObservationsSchema, true
	}
	return EntitySchema{}, false
}
