package weather

// Reading is one decoded weather observation for a grid point. The upstream
// payload is stored as-is; the only fields this system ever adds are the
// ingestion metadata attached by the persistence layer.
type Reading map[string]any

// Metadata field names attached before persistence.
const (
	FieldProcessedAt = "processed_at"
	FieldInsertedAt  = "inserted_at"
)
