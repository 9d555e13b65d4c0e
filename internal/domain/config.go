package domain

// KeyPrefix namespaces every key this service writes to the shared store.
const KeyPrefix = "lograg:"

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model               string
	Dimensions          int
	MaxInputChars       int
	DistanceMetric      string
	Algorithm           string
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultVectorConfig returns the defaults for the built-in hashing model.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "lograg-hashing-v1",
		Dimensions:     384,
		MaxInputChars:  8192,
		DistanceMetric: "cosine",
		Algorithm:      "hnsw",
	}
}
