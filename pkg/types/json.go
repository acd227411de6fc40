package types

// JSONList is a jsonb-serialized string list column.
type JSONList []string

// JSONMap is a jsonb-serialized free-form object column.
type JSONMap map[string]any
