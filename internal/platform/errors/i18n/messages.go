package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown            = "UNKNOWN"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInvalidFilter      = "INVALID_FILTER"
	CodeInvalidPageToken   = "INVALID_PAGE_TOKEN"
	CodeIntegrityViolation = "INTEGRITY_VIOLATION"
)

var enUSMessages = map[Code]string{
	CodeUnknown:            "An unexpected error occurred.",
	CodeNotFound:           "Product {{.ProductID}} was not found.",
	CodeUnauthorized:       "You are not allowed to {{.Action}} product {{.ProductID}}.",
	CodeAlreadyExists:      "Product {{.ProductID}} is already registered.",
	CodeInvalidInput:       "The {{.Field}} value is invalid.",
	CodeInvalidStatus:      "The status label is invalid.",
	CodeUnauthenticated:    "A valid identity token is required.",
	CodeInvalidFilter:      "The filter expression could not be understood.",
	CodeInvalidPageToken:   "The page token is invalid or belongs to another query.",
	CodeIntegrityViolation: "The event history of product {{.ProductID}} failed verification.",
}

var ptBRMessages = map[Code]string{
	CodeUnknown:            "Ocorreu um erro inesperado.",
	CodeNotFound:           "O produto {{.ProductID}} não foi encontrado.",
	CodeUnauthorized:       "Você não tem permissão para {{.Action}} o produto {{.ProductID}}.",
	CodeAlreadyExists:      "O produto {{.ProductID}} já está registrado.",
	CodeInvalidInput:       "O valor de {{.Field}} é inválido.",
	CodeInvalidStatus:      "O rótulo de status é inválido.",
	CodeUnauthenticated:    "É necessário um token de identidade válido.",
	CodeInvalidFilter:      "A expressão de filtro não pôde ser interpretada.",
	CodeInvalidPageToken:   "O token de página é inválido ou pertence a outra consulta.",
	CodeIntegrityViolation: "O histórico de eventos do produto {{.ProductID}} falhou na verificação.",
}
