package postboard

// Document is implemented by every type persisted through the generic repositories.
// The table name doubles as the Mongo collection name.
type Document interface {
	GetTableName() string
}
