package errors

// Service codes (AA).
const (
	ServiceCommon     = 0
	ServiceIngestion  = 20
	ServiceQuery      = 21
	ServiceEvaluation = 22
)

// Category codes (BB).
const (
	CategorySuccess  = 0
	CategoryRequest  = 1
	CategoryResource = 4
	CategoryConflict = 5
	CategoryInternal = 7
	CategoryDatabase = 8
	CategoryCache    = 9
	CategoryNetwork  = 10
	CategoryTimeout  = 11
	CategoryConfig   = 12
)

// MakeCode builds an AABBCCC error code.
func MakeCode(service, category, sequence int) int {
	return service*100000 + category*1000 + sequence
}

// GetService extracts the service code.
func GetService(code int) int {
	return code / 100000
}

// GetCategory extracts the category code.
func GetCategory(code int) int {
	return (code / 1000) % 100
}
