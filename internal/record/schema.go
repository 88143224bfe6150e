package record

// Column describes one predeclared relational column.
type Column struct {
	Name    string
	Type    string
	NotNull bool
}

// Schema is the predeclared relational layout of a record type.
type Schema struct {
	Table      string
	PrimaryKey string
	Columns    []Column
}

// ProductSchema returns the table layout products are inserted into. The
// surrogate key is generated by the database; every other column is text.
func ProductSchema() Schema {
	return Schema{
		Table:      ProductTable,
		PrimaryKey: "id",
		Columns: []Column{
			{Name: FieldItemName, Type: "TEXT", NotNull: true},
			{Name: FieldPrice, Type: "TEXT"},
			{Name: FieldAvailability, Type: "TEXT"},
			{Name: FieldColor, Type: "TEXT"},
			{Name: FieldType, Type: "TEXT"},
			{Name: FieldUkuleleCase, Type: "TEXT"},
			{Name: FieldRange, Type: "TEXT"},
			{Name: FieldFrets, Type: "TEXT"},
			{Name: FieldBodyMaterial, Type: "TEXT"},
			{Name: FieldUkuleleType, Type: "TEXT"},
			{Name: FieldFretboardMaterial, Type: "TEXT"},
			{Name: FieldFingerboardMaterial, Type: "TEXT"},
			{Name: FieldURL, Type: "TEXT", NotNull: true},
		},
	}
}

// ColumnNames lists the schema's column names in order, excluding the key.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

